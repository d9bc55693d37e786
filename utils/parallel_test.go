package utils

import (
	"context"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestGroupWorkParallel(t *testing.T) {
	const size = 100001
	sum := atomic.NewInt64(0)
	touched := atomic.NewInt64(0)

	err := GroupWorkParallel(
		context.Background(),
		size,
		func(groupSize int) {
			test.That(t, groupSize, test.ShouldBeGreaterThan, 0)
		},
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			test.That(t, to-from, test.ShouldEqual, groupSize)
			local := int64(0)
			return func(memberNum, workNum int) {
					local += int64(workNum)
					touched.Inc()
				}, func() {
					sum.Add(local)
				}
		},
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, touched.Load(), test.ShouldEqual, int64(size))
	// sum of 0..size-1
	test.That(t, sum.Load(), test.ShouldEqual, int64(size)*int64(size-1)/2)
}

func TestGroupWorkParallelSmall(t *testing.T) {
	// sizes below the parallel factor must still process every index once
	for _, size := range []int{0, 1, 2, 3} {
		count := atomic.NewInt64(0)
		err := GroupWorkParallel(
			context.Background(),
			size,
			func(groupSize int) {},
			func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
				return func(memberNum, workNum int) {
					count.Inc()
				}, nil
			},
		)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, count.Load(), test.ShouldEqual, int64(size))
	}
}

func TestMathHelpers(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, 3.141592653589793)
	test.That(t, RadToDeg(DegToRad(73)), test.ShouldAlmostEqual, 73)
	test.That(t, Clamp(1.5, 0, 1), test.ShouldEqual, 1.0)
	test.That(t, Clamp(-0.5, 0, 1), test.ShouldEqual, 0.0)
	test.That(t, Clamp(0.25, 0, 1), test.ShouldEqual, 0.25)
	test.That(t, MaxInt(3, 7), test.ShouldEqual, 7)
	test.That(t, MinInt(3, 7), test.ShouldEqual, 3)
	test.That(t, CeilDiv(10, 4), test.ShouldEqual, 3)
	test.That(t, CeilDiv(12, 4), test.ShouldEqual, 3)
	test.That(t, CeilDiv(0, 4), test.ShouldEqual, 0)
}
