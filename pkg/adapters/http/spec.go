package http

import (
	_ "embed"
	"net/http"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openapiSpec []byte

// Spec returns the embedded OpenAPI document.
func Spec() []byte {
	return openapiSpec
}

func serveSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	w.Write(openapiSpec)
}

func specVersion() string {
	var doc struct {
		Info struct {
			Version string `yaml:"version"`
		} `yaml:"info"`
	}
	if err := yaml.Unmarshal(openapiSpec, &doc); err != nil || doc.Info.Version == "" {
		return "unknown"
	}
	return doc.Info.Version
}
