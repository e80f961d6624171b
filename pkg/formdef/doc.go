// Package formdef describes the fields a form submits: their names, input
// types, constraints, selectable options and whether several inputs share a
// name. Definitions load from JSON or YAML files, or are derived from the
// request body of an OpenAPI operation. The bundled signup definition is
// available through Default.
package formdef
