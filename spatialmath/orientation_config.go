package spatialmath

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// OrientationType defines what orientation representations are known.
type OrientationType string

// The set of allowed representations for orientation.
const (
	NoOrientation   = OrientationType("")
	QuaternionType  = OrientationType("quaternion")
	AxisAnglesType  = OrientationType("axis_angles")
	EulerAnglesType = OrientationType("euler_angles")
)

var orientationFields = map[OrientationType][]string{
	QuaternionType:  {"w", "x", "y", "z"},
	AxisAnglesType:  {"th", "x", "y", "z"},
	EulerAnglesType: {"roll", "pitch", "yaw"},
}

// OrientationConfig holds the underlying type of orientation, and the value. It is decodable
// from both json and attribute maps.
type OrientationConfig struct {
	Type  OrientationType    `json:"type"`
	Value map[string]float64 `json:"value,omitempty"`
}

// NewOrientationConfig encodes an orientation as a quaternion config.
func NewOrientationConfig(o Orientation) *OrientationConfig {
	q := o.Quaternion()
	return &OrientationConfig{
		Type:  QuaternionType,
		Value: map[string]float64{"w": q.Real, "x": q.Imag, "y": q.Jmag, "z": q.Kmag},
	}
}

// ParseConfig will use the Type in OrientationConfig and convert into the correct struct that implements Orientation.
func (config *OrientationConfig) ParseConfig() (Orientation, error) {
	if config == nil || config.Type == NoOrientation {
		return NewZeroOrientation(), nil
	}
	fields, ok := orientationFields[config.Type]
	if !ok {
		return nil, errors.Errorf("orientation type %s not recognized", config.Type)
	}
	if err := checkFields(config.Value, fields); err != nil {
		return nil, errors.Wrapf(err, "invalid %s value", config.Type)
	}

	v := config.Value
	switch config.Type {
	case QuaternionType:
		q := Quaternion(Normalize(NewQuaternion(v["w"], v["x"], v["y"], v["z"]).Quaternion()))
		return &q, nil
	case AxisAnglesType:
		return &R4AA{Theta: v["th"], RX: v["x"], RY: v["y"], RZ: v["z"]}, nil
	case EulerAnglesType:
		return &EulerAngles{Roll: v["roll"], Pitch: v["pitch"], Yaw: v["yaw"]}, nil
	default:
		return nil, errors.Errorf("orientation type %s not recognized", config.Type)
	}
}

// checkFields rejects keys a representation does not have. Missing keys read as zero.
func checkFields(value map[string]float64, allowed []string) error {
	var unknown []string
	for key := range value {
		found := false
		for _, field := range allowed {
			if key == field {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return errors.Errorf("unknown fields %v, expected a subset of %v", unknown, allowed)
}

// PoseConfig encodes a pose as a translation (mm) and an orientation.
type PoseConfig struct {
	Translation r3.Vector          `json:"translation"`
	Orientation *OrientationConfig `json:"orientation,omitempty"`
}

// NewPoseConfig encodes a pose into its config form.
func NewPoseConfig(p Pose) *PoseConfig {
	return &PoseConfig{
		Translation: p.Point(),
		Orientation: NewOrientationConfig(p.Orientation()),
	}
}

// ParseConfig converts a PoseConfig into a Pose.
func (config *PoseConfig) ParseConfig() (Pose, error) {
	if config == nil {
		return nil, errors.New("no pose config")
	}
	o, err := config.Orientation.ParseConfig()
	if err != nil {
		return nil, err
	}
	return NewPose(config.Translation, o), nil
}
