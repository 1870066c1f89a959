package invoker

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"
)

// argValidator checks call arguments against a tool's declared input schema.
// Schemas that fail to resolve disable validation for that tool.
type argValidator struct {
	raw      json.RawMessage
	logger   *zap.Logger
	once     sync.Once
	resolved *jsonschema.Resolved
}

func newArgValidator(raw json.RawMessage, logger *zap.Logger) *argValidator {
	return &argValidator{raw: raw, logger: logger}
}

func (v *argValidator) Validate(args map[string]any) error {
	v.once.Do(v.resolve)
	if v.resolved == nil {
		return nil
	}
	instance := map[string]any{}
	if args != nil {
		// Round-trip so typed values such as []string validate like decoded JSON.
		raw, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("encode arguments: %w", err)
		}
		if err := json.Unmarshal(raw, &instance); err != nil {
			return fmt.Errorf("decode arguments: %w", err)
		}
	}
	return v.resolved.Validate(instance)
}

func (v *argValidator) resolve() {
	if len(v.raw) == 0 {
		return
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(v.raw, &schema); err != nil {
		v.logger.Debug("input schema not decodable, skipping validation", zap.Error(err))
		return
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		v.logger.Debug("input schema not resolvable, skipping validation", zap.Error(err))
		return
	}
	v.resolved = resolved
}
