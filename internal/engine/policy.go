package engine

import (
	"fmt"
	"sort"

	"github.com/gxo-labs/deepclone/internal/config"
	v1 "github.com/gxo-labs/deepclone/pkg/deepclone/v1"
	cloneerrors "github.com/gxo-labs/deepclone/pkg/deepclone/v1/errors"
)

// ApplyPolicy applies a loaded clone policy. Nothing is applied unless
// every type name in p resolves. Registrations add to what the engine
// already has; switches absent from p keep their value.
func (e *Engine) ApplyPolicy(p *config.Policy) error {
	if p == nil {
		return cloneerrors.NewConfigError("policy cannot be nil", nil)
	}
	if err := config.ValidatePolicy(p); err != nil {
		return cloneerrors.NewValidationError(fmt.Sprintf("policy '%s' is invalid", p.FilePath), err)
	}
	rp, err := config.Resolve(p, e.types)
	if err != nil {
		return err
	}

	if p.Accessor != "" {
		if err := e.SetAccessor(p.Accessor); err != nil {
			return err
		}
	}
	if p.Enabled != nil {
		e.SetCloningEnabled(*p.Enabled)
	}
	if p.NullTransient != nil {
		e.SetNullTransient(*p.NullTransient)
	}
	if p.CloneSynthetics != nil {
		e.SetCloneSynthetics(*p.CloneSynthetics)
	}
	if p.CloneOuterRefs != nil {
		e.SetCloneOuterRefs(*p.CloneOuterRefs)
	}

	if len(rp.Immutable) > 0 {
		e.RegisterImmutable(rp.Immutable...)
	}
	if len(rp.Ignore) > 0 {
		e.DontClone(rp.Ignore...)
	}
	if len(rp.IgnoreInstanceOf) > 0 {
		e.DontCloneInstanceOf(rp.IgnoreInstanceOf...)
	}
	if len(rp.NullInstead) > 0 {
		e.NullInsteadOfClone(rp.NullInstead...)
	}
	if len(rp.RootAncestors) > 0 {
		e.RegisterRootAncestor(rp.RootAncestors...)
	}
	if len(p.NullTags) > 0 {
		e.NullInsteadForTag(p.NullTags...)
	}

	// Sorted so that the strategy chain order does not depend on map order.
	keys := make([]string, 0, len(p.Strategies))
	for k := range p.Strategies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		result := v1.NullInsteadOfClone
		if p.Strategies[key] == config.ActionSame {
			result = v1.SameInstanceInsteadOfClone
		}
		if err := e.RegisterCloningStrategy(v1.StrategyForTag(key, result)); err != nil {
			return err
		}
	}

	e.settings.Load().log.Infof("Applied clone policy '%s' (schema %s).", p.FilePath, p.SchemaVersion)
	return nil
}
