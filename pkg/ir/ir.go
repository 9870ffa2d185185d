package ir

// SkillDocument is the root of the intermediate representation. It is
// self-contained: rendering it never needs the source specification.
type SkillDocument struct {
	Meta         SkillMeta
	Resources    []ResourceDocument
	SchemaGroups []SchemaGroupDocument
	AuthSchemes  []AuthSchemeDocument
}

// SkillMeta describes the bundle as a whole
type SkillMeta struct {
	// Name is the filesystem-safe bundle name (directory of SKILL.md)
	Name           string
	Title          string
	Description    string
	Version        string
	OpenAPIVersion string
	License        *LicenseDocument
	// Contact is the contact email, when declared
	Contact string
	Servers []ServerDocument
	// SecuritySchemes lists declared scheme names in declaration order
	SecuritySchemes []string
}

// LicenseDocument is the API license
type LicenseDocument struct {
	Name string
	URL  string
}

// ServerDocument is one entry of the servers list
type ServerDocument struct {
	URL         string
	Description string
}

// ResourceDocument groups operations under one tag or path-derived key
type ResourceDocument struct {
	Tag         string
	Description string
	Operations  []OperationDocument
}

// OperationDocument represents a single API operation (endpoint + method)
type OperationDocument struct {
	OperationID string
	Path        string
	// Method is upper case (GET, POST, ...)
	Method      string
	Tag         string
	Summary     string
	Description string
	Deprecated  bool
	Parameters  []ParameterDocument
	RequestBody *RequestBodyDocument
	Responses   []ResponseDocument
	Security    []SecurityRequirementDocument
}

// ParameterDocument is a concrete (non-reference) operation parameter
type ParameterDocument struct {
	Name string
	// In is one of query, header, path, cookie
	In          string
	Type        string
	Required    bool
	Description string
	Schema      *SchemaRefDocument
}

// RequestBodyDocument represents a request body
type RequestBodyDocument struct {
	Description  string
	Required     bool
	ContentTypes []string
	Schema       *SchemaRefDocument
}

// ResponseDocument represents one declared response status
type ResponseDocument struct {
	Status      string
	Description string
	Schema      *SchemaRefDocument
}

// SecurityRequirementDocument is one flattened entry of an operation's security list
type SecurityRequirementDocument struct {
	Name   string
	Scopes []string
}

// SchemaGroupDocument holds schemas sharing a name prefix
type SchemaGroupDocument struct {
	Prefix  string
	Schemas []SchemaDocument
}

// SchemaType classifies a SchemaDocument
type SchemaType string

const (
	SchemaTypeObject    SchemaType = "object"
	SchemaTypeArray     SchemaType = "array"
	SchemaTypeEnum      SchemaType = "enum"
	SchemaTypePrimitive SchemaType = "primitive"
	SchemaTypeAllOf     SchemaType = "allOf"
	SchemaTypeOneOf     SchemaType = "oneOf"
	SchemaTypeAnyOf     SchemaType = "anyOf"
)

// IsComposition reports whether t lists composition members
func (t SchemaType) IsComposition() bool {
	return t == SchemaTypeAllOf || t == SchemaTypeOneOf || t == SchemaTypeAnyOf
}

// InlineSchemaName is the placeholder name of schemas embedded in another node
const InlineSchemaName = "(inline)"

// SchemaDocument is one schema. Only the payload matching Type is populated:
// Fields for object, EnumValues for enum, Composition for allOf/oneOf/anyOf
// and Items for array.
type SchemaDocument struct {
	Name        string
	Type        SchemaType
	Description string
	Fields      []FieldDocument
	EnumValues  []any
	Composition []SchemaRefDocument
	Items       *SchemaRefDocument
}

// FieldDocument represents a property of an object schema
type FieldDocument struct {
	Name        string
	Type        string
	Required    bool
	Description string
	// Schema is set when the property references a named schema
	Schema *SchemaRefDocument
	// NestedFields flattens one level of inline object properties
	NestedFields []FieldDocument
}

// SchemaRefDocument points at a named schema or embeds an inline one.
// Exactly one of Ref and Inline is set.
type SchemaRefDocument struct {
	// Ref is the local schema name, suffixed with [] for arrays of references
	Ref    string
	Inline *SchemaDocument
}

// IsRef reports whether r names another schema
func (r SchemaRefDocument) IsRef() bool {
	return r.Ref != ""
}

// AuthSchemeDocument captures one security scheme. Only the fields relevant
// to Type are populated.
type AuthSchemeDocument struct {
	Name        string
	Type        string
	Description string

	// apiKey
	In        string
	ParamName string

	// http
	Scheme       string
	BearerFormat string

	// oauth2
	Flows []OAuthFlowDocument

	// openIdConnect
	OpenIDConnectURL string
}

// OAuthFlowDocument is one named OAuth2 flow
type OAuthFlowDocument struct {
	Name             string
	AuthorizationURL string
	TokenURL         string
	RefreshURL       string
	Scopes           []ScopeDocument
}

// ScopeDocument is an OAuth2 scope and its description
type ScopeDocument struct {
	Name        string
	Description string
}
