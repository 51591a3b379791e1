package config

import (
	"fmt"

	"github.com/agentstation/placemap/pkg/aligner"
	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/errors"
	"github.com/agentstation/placemap/pkg/places"
)

// Plan converts the strategy sections into an engine plan and checks
// that every strategy it names is runnable.
func (c *Config) Plan() (aligner.Plan, error) {
	plan := aligner.Plan{Modes: c.AlignmentModes}

	for i, pc := range c.ProximityCategories {
		attr, err := places.ParseAttribute(pc.Attribute)
		if err != nil {
			return aligner.Plan{}, errors.WrapValidation(fmt.Sprintf("proximity_categories[%d].attribute", i), err)
		}
		plan.ProximityCategories = append(plan.ProximityCategories, aligner.ProximityCategory{
			Name:      pc.Name,
			Attribute: attr,
			Threshold: pc.Threshold,
		})
	}
	for _, m := range c.BoostModes {
		mode, err := alignment.ParseMode(m)
		if err != nil {
			return aligner.Plan{}, err
		}
		plan.BoostModes = append(plan.BoostModes, mode)
	}
	for _, r := range c.Infer {
		plan.Inferences = append(plan.Inferences, aligner.Inference{
			Primary:  r.PrimaryNamespace,
			Aligned:  r.AlignedNamespace,
			Inferred: r.InferredNamespace,
		})
	}

	strategies, err := plan.Strategies()
	if err != nil {
		return aligner.Plan{}, err
	}
	for _, s := range strategies {
		if v, ok := s.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return aligner.Plan{}, err
			}
		}
		if _, ok := s.(aligner.Toponymy); ok && len(plan.BoostModes) == 0 {
			return aligner.Plan{}, errors.NewValidationError("boost_modes", nil, "required by toponymy")
		}
		if _, ok := s.(aligner.Typology); ok && len(plan.BoostModes) == 0 {
			return aligner.Plan{}, errors.NewValidationError("boost_modes", nil, "required by typology")
		}
	}
	return plan, nil
}
