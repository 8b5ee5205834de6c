package main

import (
	"context"

	"github.com/platinummonkey/docflow/pkg/doctype"
	"github.com/platinummonkey/docflow/pkg/identity"
	"github.com/platinummonkey/docflow/pkg/notify"
)

// registerTypes declares the document types this deployment serves. The
// built-in "request" workflow is a minimal approval pipeline; real
// deployments register their own types here.
func registerTypes(dispatcher *notify.Dispatcher) *doctype.Registry {
	registry := doctype.NewRegistry()

	registry.MustRegister(&doctype.Type{
		Name: "request",
		Roles: map[string]doctype.Role{
			// Owner resolves to whoever the document names in its owner
			// field, without any stored group.
			"Owner": {Resolve: func(ctx context.Context, ec *doctype.EvalContext) ([]identity.Person, error) {
				if v, ok := ec.Doc.Lookup("owner"); ok {
					if m, ok := v.(map[string]interface{}); ok {
						if email, ok := m["email"].(string); ok {
							return []identity.Person{{Email: email}}, nil
						}
					}
				}
				return nil, nil
			}},
		},
		States: map[string]doctype.State{
			"requested": {
				Label: "Requested",
				Write: doctype.Groups("Employee", "Owner"),
				NextStates: map[string]doctype.Transition{
					"approved": {
						Groups: []string{"management"},
						Label:  "Approve",
						Action: func(ctx context.Context, ec *doctype.EvalContext) error {
							if v, ok := ec.Doc.Lookup("owner"); ok {
								if m, ok := v.(map[string]interface{}); ok {
									if email, ok := m["email"].(string); ok {
										dispatcher.Dispatch(
											[]identity.Person{{Email: email}},
											"Request approved",
											"Your request was approved.",
										)
									}
								}
							}
							return nil
						},
					},
					"rejected": {Groups: []string{"management"}, Label: "Reject"},
				},
			},
			"approved": {
				Label: "Approved",
				Write: doctype.Groups("management"),
				NextStates: map[string]doctype.Transition{
					"closed": {Groups: []string{"management"}},
				},
			},
			"rejected": {
				Label: "Rejected",
				Write: doctype.Groups("management"),
				NextStates: map[string]doctype.Transition{
					"requested": {Groups: []string{"Owner"}, Label: "Resubmit"},
				},
			},
			"closed": {
				Label: "Closed",
				Write: doctype.Groups(),
			},
		},
	})

	return registry
}
