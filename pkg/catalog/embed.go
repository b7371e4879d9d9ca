package catalog

import "embed"

// builtinRoot is the directory inside builtinCatalogFS holding the documents.
const builtinRoot = "data_elements"

// builtinCatalogFS embeds the builtin privacy data element catalog.
//
//go:embed data_elements/*.json
var builtinCatalogFS embed.FS
