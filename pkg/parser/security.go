package parser

import (
	"github.com/blimu-dev/skill-gen/pkg/ir"
	"github.com/blimu-dev/skill-gen/pkg/openapi"
	"github.com/getkin/kin-openapi/openapi3"
)

// Security scheme types
const (
	AuthAPIKey        = "apiKey"
	AuthHTTP          = "http"
	AuthOAuth2        = "oauth2"
	AuthOpenIDConnect = "openIdConnect"
)

// buildAuthSchemes extracts security schemes in declaration order. Reference
// entries are skipped.
func buildAuthSchemes(doc *openapi.Document) []ir.AuthSchemeDocument {
	if doc.Components == nil || len(doc.Components.SecuritySchemes) == 0 {
		return nil
	}
	schemes := doc.Components.SecuritySchemes
	var out []ir.AuthSchemeDocument
	for _, name := range openapi.OrderedKeys(doc, schemes, "components", "securitySchemes") {
		ref := schemes[name]
		if ref == nil || ref.Ref != "" || ref.Value == nil {
			continue
		}
		out = append(out, buildAuthScheme(doc, name, ref.Value))
	}
	return out
}

func buildAuthScheme(doc *openapi.Document, name string, s *openapi3.SecurityScheme) ir.AuthSchemeDocument {
	a := ir.AuthSchemeDocument{
		Name:        name,
		Type:        s.Type,
		Description: s.Description,
	}
	switch s.Type {
	case AuthAPIKey:
		a.In = s.In
		a.ParamName = s.Name
	case AuthHTTP:
		a.Scheme = s.Scheme
		a.BearerFormat = s.BearerFormat
	case AuthOAuth2:
		a.Flows = buildOAuthFlows(doc, s.Flows, []string{"components", "securitySchemes", name, "flows"})
	case AuthOpenIDConnect:
		a.OpenIDConnectURL = s.OpenIdConnectUrl
	}
	return a
}

func buildOAuthFlows(doc *openapi.Document, flows *openapi3.OAuthFlows, pointer []string) []ir.OAuthFlowDocument {
	if flows == nil {
		return nil
	}
	byName := map[string]*openapi3.OAuthFlow{}
	for name, f := range map[string]*openapi3.OAuthFlow{
		"implicit":          flows.Implicit,
		"password":          flows.Password,
		"clientCredentials": flows.ClientCredentials,
		"authorizationCode": flows.AuthorizationCode,
	} {
		if f != nil {
			byName[name] = f
		}
	}

	var out []ir.OAuthFlowDocument
	for _, name := range openapi.OrderedKeys(doc, byName, pointer...) {
		f := byName[name]
		flow := ir.OAuthFlowDocument{
			Name:             name,
			AuthorizationURL: f.AuthorizationURL,
			TokenURL:         f.TokenURL,
			RefreshURL:       f.RefreshURL,
		}
		for _, scope := range openapi.OrderedKeys(doc, f.Scopes, openapi.Child(pointer, name, "scopes")...) {
			flow.Scopes = append(flow.Scopes, ir.ScopeDocument{Name: scope, Description: f.Scopes[scope]})
		}
		out = append(out, flow)
	}
	return out
}
