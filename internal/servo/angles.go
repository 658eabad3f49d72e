// Package servo maps hand landmarks to the four servo angles of the arm.
package servo

import (
	"strconv"
	"strings"
)

// Servo indices into Angles.
const (
	Base     = 0 // horizontal offset
	Shoulder = 1 // vertical offset
	Elbow    = 2 // depth offset
	Gripper  = 3 // open/closed hand

	NumServos = 4
)

// Angle limits in degrees.
const (
	MaxJointAngle   = 180
	MaxGripperAngle = 60
)

// Angles is one frame's worth of servo positions, in servo order.
type Angles [NumServos]int

// Range is an inclusive [Min, Max] limit for one servo.
type Range struct {
	Min int
	Max int
}

// Limits holds the valid range of every servo.
var Limits = [NumServos]Range{
	Base:     {0, MaxJointAngle},
	Shoulder: {0, MaxJointAngle},
	Elbow:    {0, MaxJointAngle},
	Gripper:  {0, MaxGripperAngle},
}

// Valid reports whether every angle is within its servo's limits.
func (a Angles) Valid() bool {
	for i, v := range a {
		if v < Limits[i].Min || v > Limits[i].Max {
			return false
		}
	}
	return true
}

// String renders the angles comma-separated, e.g. "126,90,45,60".
func (a Angles) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
