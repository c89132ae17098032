package kinematics

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/fabrik/logging"
	"go.viam.com/fabrik/spatialmath"
)

// ErrNoChainInformation is used when there is no chain information to parse.
var ErrNoChainInformation = errors.New("no chain information")

// ChainConfig represents all supported fields in a chain JSON file.
type ChainConfig struct {
	Name                   string                    `json:"name"`
	Base                   r3.Vector                 `json:"base"`
	FixedBase              *bool                     `json:"fixed_base,omitempty"`
	SolveDistanceThreshold *float64                  `json:"solve_distance_threshold,omitempty"`
	MinIterationChange     *float64                  `json:"min_iteration_change,omitempty"`
	MaxIterations          *int                      `json:"max_iterations,omitempty"`
	EmbeddedTarget         *r3.Vector                `json:"embedded_target,omitempty"`
	UseEmbeddedTarget      bool                      `json:"use_embedded_target,omitempty"`
	Basebone               BoneConfig                `json:"basebone"`
	BaseboneConstraint     *BaseboneConstraintConfig `json:"basebone_constraint,omitempty"`
	Bones                  []BoneConfig              `json:"bones,omitempty"`
}

// BoneConfig describes one bone as a direction and length. The start of every bone after the basebone is the end of
// the bone before it.
type BoneConfig struct {
	Name      string       `json:"name,omitempty"`
	Direction r3.Vector    `json:"direction"`
	Length    float64      `json:"length"`
	Joint     *JointConfig `json:"joint,omitempty"`
}

// JointConfig describes the joint carried by a bone. A missing joint is an unconstrained ball joint.
type JointConfig struct {
	Type          string     `json:"type"`
	AngleDegs     *float64   `json:"angle_degs,omitempty"`
	Axis          *r3.Vector `json:"axis,omitempty"`
	CWDegs        *float64   `json:"cw_degs,omitempty"`
	ACWDegs       *float64   `json:"acw_degs,omitempty"`
	ReferenceAxis *r3.Vector `json:"reference_axis,omitempty"`
	Free          bool       `json:"free,omitempty"`
}

// BaseboneConstraintConfig describes the chain level basebone constraint. Type is one of global_rotor, local_rotor,
// global_hinge or local_hinge.
type BaseboneConstraintConfig struct {
	Type          string     `json:"type"`
	Axis          r3.Vector  `json:"axis"`
	AngleDegs     *float64   `json:"angle_degs,omitempty"`
	CWDegs        *float64   `json:"cw_degs,omitempty"`
	ACWDegs       *float64   `json:"acw_degs,omitempty"`
	ReferenceAxis *r3.Vector `json:"reference_axis,omitempty"`
	Free          bool       `json:"free,omitempty"`
}

// Validate checks the config and returns every problem found, combined. path names the config in error messages.
func (cfg *ChainConfig) Validate(path string) error {
	var err error
	if cfg.SolveDistanceThreshold != nil && !(*cfg.SolveDistanceThreshold >= 0) {
		err = multierr.Append(err, newConfigFieldError(path, "solve_distance_threshold", *cfg.SolveDistanceThreshold))
	}
	if cfg.MinIterationChange != nil && !(*cfg.MinIterationChange >= 0) {
		err = multierr.Append(err, newConfigFieldError(path, "min_iteration_change", *cfg.MinIterationChange))
	}
	if cfg.MaxIterations != nil && *cfg.MaxIterations < 1 {
		err = multierr.Append(err, newConfigFieldError(path, "max_iterations", *cfg.MaxIterations))
	}

	err = multierr.Append(err, cfg.Basebone.validate(fmt.Sprintf("%s.basebone", path)))
	for i, bone := range cfg.Bones {
		err = multierr.Append(err, bone.validate(fmt.Sprintf("%s.bones.%d", path, i)))
	}
	if cfg.BaseboneConstraint != nil {
		err = multierr.Append(err, cfg.BaseboneConstraint.validate(fmt.Sprintf("%s.basebone_constraint", path)))
	}
	return err
}

func (b *BoneConfig) validate(path string) error {
	var err error
	if b.Direction.Norm2() == 0 {
		err = multierr.Append(err, errors.Wrap(ErrZeroDirection, path))
	}
	if !(b.Length >= 0) {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidLength, "%s: got %v", path, b.Length))
	}
	if b.Joint != nil {
		if _, jointErr := b.Joint.toJoint(); jointErr != nil {
			err = multierr.Append(err, errors.Wrapf(jointErr, "%s.joint", path))
		}
	}
	return err
}

func (bc *BaseboneConstraintConfig) validate(path string) error {
	switch bc.Type {
	case "global_rotor", "local_rotor":
		if bc.Axis.Norm2() == 0 {
			return errors.Wrapf(ErrZeroAxis, "%s.axis", path)
		}
		if bc.AngleDegs == nil {
			return errors.Errorf("%s: a rotor constraint needs angle_degs", path)
		}
		return errors.Wrap(checkAngle(*bc.AngleDegs), path)
	case "global_hinge", "local_hinge":
		if _, err := bc.hingeJoint(); err != nil {
			return errors.Wrap(err, path)
		}
		return nil
	default:
		return errors.Errorf("%s: unsupported basebone constraint type %q", path, bc.Type)
	}
}

// toJoint converts the config into a Joint.
func (jc *JointConfig) toJoint() (*Joint, error) {
	switch jc.Type {
	case "ball", "":
		if jc.AngleDegs == nil {
			return NewJoint(), nil
		}
		return NewBallJoint(*jc.AngleDegs)
	case "global_hinge", "local_hinge":
		frame := Global
		if jc.Type == "local_hinge" {
			frame = Local
		}
		axis, cw, acw, reference, err := hingeParams(jc.Axis, jc.CWDegs, jc.ACWDegs, jc.ReferenceAxis, jc.Free)
		if err != nil {
			return nil, err
		}
		return NewHingeJoint(frame, axis, cw, acw, reference)
	default:
		return nil, errors.Errorf("unsupported joint type %q, supported types are ball, global_hinge and local_hinge", jc.Type)
	}
}

func (bc *BaseboneConstraintConfig) hingeJoint() (*Joint, error) {
	frame := Global
	if bc.Type == "local_hinge" {
		frame = Local
	}
	axis, cw, acw, reference, err := hingeParams(&bc.Axis, bc.CWDegs, bc.ACWDegs, bc.ReferenceAxis, bc.Free)
	if err != nil {
		return nil, err
	}
	return NewHingeJoint(frame, axis, cw, acw, reference)
}

// hingeParams fills in the defaults of a hinge: a free hinge ignores any limits and a missing reference axis is
// chosen perpendicular to the rotation axis.
func hingeParams(axis *r3.Vector, cw, acw *float64, reference *r3.Vector, free bool) (r3.Vector, float64, float64, r3.Vector, error) {
	if axis == nil || axis.Norm2() == 0 {
		return r3.Vector{}, 0, 0, r3.Vector{}, errors.Wrap(ErrZeroAxis, "hinge axis")
	}
	cwDegs, acwDegs := MaxAngleDegs, MaxAngleDegs
	if !free {
		if cw == nil || acw == nil {
			return r3.Vector{}, 0, 0, r3.Vector{}, errors.New("a limited hinge needs both cw_degs and acw_degs")
		}
		cwDegs, acwDegs = *cw, *acw
	}
	ref := spatialmath.PerpendicularQuick(*axis)
	if reference != nil {
		ref = *reference
	}
	return *axis, cwDegs, acwDegs, ref, nil
}

// ParseConfig converts the ChainConfig into a Chain that logs to logger.
func (cfg *ChainConfig) ParseConfig(logger logging.Logger) (*Chain, error) {
	if err := cfg.Validate(cfg.Name); err != nil {
		return nil, err
	}

	chain := NewChain(cfg.Name, logger)
	basebone, err := NewBoneFromDirection(cfg.Base, cfg.Basebone.Direction, cfg.Basebone.Length)
	if err != nil {
		return nil, err
	}
	basebone.SetName(cfg.Basebone.Name)
	if cfg.Basebone.Joint != nil {
		joint, err := cfg.Basebone.Joint.toJoint()
		if err != nil {
			return nil, err
		}
		basebone.SetJoint(joint)
	}
	chain.AddBone(basebone)

	for _, bc := range cfg.Bones {
		bone, err := NewBoneFromDirection(chain.EffectorLocation(), bc.Direction, bc.Length)
		if err != nil {
			return nil, err
		}
		bone.SetName(bc.Name)
		if bc.Joint != nil {
			joint, err := bc.Joint.toJoint()
			if err != nil {
				return nil, err
			}
			bone.SetJoint(joint)
		}
		chain.AddBone(bone)
	}

	if bc := cfg.BaseboneConstraint; bc != nil {
		switch bc.Type {
		case "global_rotor", "local_rotor":
			frame := Global
			if bc.Type == "local_rotor" {
				frame = Local
			}
			err = chain.SetRotorBaseboneConstraint(frame, bc.Axis, *bc.AngleDegs)
		default:
			var joint *Joint
			joint, err = bc.hingeJoint()
			if err == nil {
				frame := Global
				if joint.Type() == LocalHinge {
					frame = Local
				}
				err = chain.SetHingeBaseboneConstraint(
					frame, joint.HingeRotationAxis(), joint.ClockwiseDegs(), joint.AnticlockwiseDegs(), joint.HingeReferenceAxis(),
				)
			}
		}
		if err != nil {
			return nil, errors.Wrap(err, "basebone constraint")
		}
	}

	if cfg.SolveDistanceThreshold != nil {
		if err := chain.SetSolveDistanceThreshold(*cfg.SolveDistanceThreshold); err != nil {
			return nil, err
		}
	}
	if cfg.MinIterationChange != nil {
		if err := chain.SetMinIterationChange(*cfg.MinIterationChange); err != nil {
			return nil, err
		}
	}
	if cfg.MaxIterations != nil {
		if err := chain.SetMaxIterationAttempts(*cfg.MaxIterations); err != nil {
			return nil, err
		}
	}
	if cfg.EmbeddedTarget != nil {
		chain.SetEmbeddedTarget(*cfg.EmbeddedTarget)
	}
	chain.SetUseEmbeddedTarget(cfg.UseEmbeddedTarget)
	if cfg.FixedBase != nil {
		if err := chain.SetFixedBaseMode(*cfg.FixedBase); err != nil {
			return nil, err
		}
	}

	chain.logger.Debugw("parsed chain config", "chain", chain.Name(), "bones", chain.NumBones(), "length", chain.ChainLength())
	return chain, nil
}

// UnmarshalChainJSON parses the given JSON data into a chain.
func UnmarshalChainJSON(jsonData []byte, logger logging.Logger) (*Chain, error) {
	if len(jsonData) == 0 {
		return nil, ErrNoChainInformation
	}

	cfg := &ChainConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return cfg.ParseConfig(logger)
}

// ParseChainJSONFile will read a given file and then parse the contained JSON data.
func ParseChainJSONFile(filename string, logger logging.Logger) (*Chain, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalChainJSON(jsonData, logger)
}

func newConfigFieldError(path, field string, value interface{}) error {
	return errors.Wrapf(ErrInvalidParameter, "%s.%s cannot be %v", path, field, value)
}
