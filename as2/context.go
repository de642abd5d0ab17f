package as2

import (
	"encoding/json"
	"fmt"
)

// WrapContext marshals a document and splices the global @context in
// front of its properties. The value must marshal to a JSON object.
func WrapContext(v any) (json.RawMessage, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}

	ctx, err := json.Marshal(GlobalContext())
	if err != nil {
		return nil, err
	}
	fields["@context"] = ctx

	return json.Marshal(fields)
}
