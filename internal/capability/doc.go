// Package capability defines the value types of the capstan registration engine.
//
// A capability is one discoverable operation exposed over MCP: a tool, a
// prompt or a resource. Capabilities are declared by contributor classes.
// A class is not a Go type discovered through reflection; it is an explicit
// descriptor table registered in a Types catalog under a string reference:
//
//	types := capability.NewTypes()
//	types.MustRegister(&capability.Class{
//	    Ref: "acme/seo.AuditTools",
//	    New: func() (any, error) { return &AuditTools{}, nil },
//	    Describe: func() (*capability.Spec, error) {
//	        return &capability.Spec{
//	            Operations: []capability.Operation{{
//	                Name:    "audit",
//	                Tool:    &capability.ToolMarker{Description: "Audit a page"},
//	                Meta:    &capability.MetaMarker{Category: "seo", Condition: "enabled"},
//	                Handler: capability.Method((*AuditTools).audit),
//	            }},
//	            Conditions: map[string]capability.ConditionFunc{
//	                "enabled": capability.Check((*AuditTools).enabled),
//	            },
//	        }, nil
//	    },
//	})
//
// The extractor turns a class into immutable Definitions. A Definition keeps
// typed function references to its handler and to its availability
// condition, both bound to a factory that builds a fresh owner instance on
// every use.
package capability
