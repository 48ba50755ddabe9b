// Package pydapter provides a uniform conversion layer between typed domain
// models and heterogeneous external representations.
//
// The core of the package is the field/protocol composition system: immutable
// FieldTemplate values describe the shape of a field, named field families and
// protocols group templates into reusable patterns, and the Factory resolves
// those groupings into concrete ModelType schemas whose instances validate,
// normalize and serialize their data.
//
// Basic Usage
//
//	factory := pydapter.NewFactory(nil, nil)
//	User, err := factory.CreateModel("User",
//	    pydapter.WithProtocols("identifiable", "temporal"),
//	    pydapter.WithField("name", pydapter.Template[string]()),
//	)
//	inst, err := User.New(map[string]any{"name": "ada"})
//	id, err := inst.Call("GetID")
//
// # Field Templates
//
// A FieldTemplate is a stencil, not an instance: composition methods such as
// AsNullable, AsListable, WithDefault and WithValidator never mutate the
// receiver, so a single template is safely shared across many model
// definitions. Materialization binds a template to a field name and resolves
// its composite annotation through a bounded, thread-safe TypeCache.
//
// # Protocols
//
// A protocol bundles required fields with an optional mixin of behavior
// methods. Protocols live in an explicit ProtocolRegistry; models built with
// a protocol expose its fields and dispatch its methods by name through
// Instance.Call.
//
// # Adapters
//
// Adapters move model instances to and from external representations. The
// package ships JSON, CSV and SQLite adapters plus an AdapterRegistry for
// keyed lookup; additional adapters only need to implement the Adapter
// interface.
//
// # Thread Safety
//
// Templates, families and built model types are immutable and safe for
// concurrent use. The TypeCache and the registries are internally
// synchronized. Instances are plain mutable values and are not synchronized.
package pydapter
