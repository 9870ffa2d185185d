package parser

import (
	"testing"

	"github.com/blimu-dev/skill-gen/pkg/ir"
	"github.com/blimu-dev/skill-gen/pkg/openapi"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreSpec = `
openapi: 3.0.3
info:
  title: Pet Store API
  version: 1.0
  description: |-
    Manage pets and orders.
    Second line is dropped.
  license:
    name: MIT
    url: https://opensource.org/licenses/MIT
  contact:
    email: api@example.com
servers:
  - url: https://api.example.com/v1
    description: Production
tags:
  - name: pets
    description: Pet operations
paths:
  /pets:
    post:
      tags: [pets]
      operationId: createPet
      requestBody:
        required: true
        description: Pet to add
        content:
          application/xml:
            schema:
              $ref: '#/components/schemas/PetInput'
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        201:
          description: Created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
        default:
          $ref: '#/components/responses/Error'
      security:
        - apiKey: []
        - oauth: ['write:pets', 'read:pets']
          apiKey: []
    get:
      tags: [pets]
      operationId: listPets
      parameters:
        - name: limit
          in: query
          required: false
          description: Page size
          schema:
            type: integer
            format: int32
        - $ref: '#/components/parameters/Offset'
      responses:
        200:
          description: A list
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
  /pets/{petId}:
    delete:
      tags: [pets]
      deprecated: true
      responses:
        204:
          description: Deleted
  /api/v1/store/orders:
    get:
      summary: List orders
      responses:
        200:
          description: OK
components:
  schemas:
    Pet:
      type: object
      description: A pet
      required: [id, name]
      properties:
        name:
          type: string
        id:
          type: integer
          format: int64
        tags:
          type: array
          items:
            $ref: '#/components/schemas/Tag'
        owner:
          $ref: '#/components/schemas/User'
        status:
          type: string
          enum: [available, pending, sold, archived]
        address:
          type: object
          properties:
            city:
              type: string
            geo:
              type: object
              properties:
                lat:
                  type: number
        visits:
          type: array
          items:
            type: object
            properties:
              date:
                type: string
                format: date
    PetInput:
      allOf:
        - $ref: '#/components/schemas/Pet'
        - type: object
          properties:
            note:
              type: string
    PetStatus:
      type: string
      enum: [available, sold]
    user_profile:
      type: object
      properties:
        bio:
          type: string
    Tag:
      type: object
      properties:
        label:
          type: string
    PetList:
      type: array
      items:
        $ref: '#/components/schemas/Pet'
    Alias:
      $ref: '#/components/schemas/Missing'
  securitySchemes:
    oauth:
      type: oauth2
      flows:
        clientCredentials:
          tokenUrl: https://auth.example.com/token
          scopes:
            'write:pets': modify pets
            'read:pets': read pets
        authorizationCode:
          authorizationUrl: https://auth.example.com/authorize
          tokenUrl: https://auth.example.com/token
          scopes: {}
    apiKey:
      type: apiKey
      in: header
      name: X-API-Key
    bearer:
      type: http
      scheme: bearer
      bearerFormat: JWT
    oidc:
      type: openIdConnect
      openIdConnectUrl: https://auth.example.com/.well-known/openid-configuration
    shared:
      $ref: '#/components/securitySchemes/apiKey'
`

func loadSpec(t *testing.T, spec string) *openapi.Document {
	t.Helper()
	doc, err := openapi.LoadData([]byte(spec))
	require.NoError(t, err)
	require.NoError(t, openapi.ValidateStructure(doc))
	return doc
}

func findResource(t *testing.T, doc *ir.SkillDocument, tag string) ir.ResourceDocument {
	t.Helper()
	for _, r := range doc.Resources {
		if r.Tag == tag {
			return r
		}
	}
	require.Failf(t, "resource not found", "no resource %q", tag)
	return ir.ResourceDocument{}
}

func findOperation(t *testing.T, doc *ir.SkillDocument, id string) ir.OperationDocument {
	t.Helper()
	for _, r := range doc.Resources {
		for _, op := range r.Operations {
			if op.OperationID == id {
				return op
			}
		}
	}
	require.Failf(t, "operation not found", "no operation %q", id)
	return ir.OperationDocument{}
}

func operationIDs(r ir.ResourceDocument) []string {
	ids := make([]string, 0, len(r.Operations))
	for _, op := range r.Operations {
		ids = append(ids, op.OperationID)
	}
	return ids
}

func resourceTags(doc *ir.SkillDocument) []string {
	tags := make([]string, 0, len(doc.Resources))
	for _, r := range doc.Resources {
		tags = append(tags, r.Tag)
	}
	return tags
}

func TestParseMinimalDocument(t *testing.T) {
	doc := loadSpec(t, `
openapi: 3.0.0
info:
  title: Users
  version: 1.0.0
paths:
  /users:
    get:
      tags: [users]
      operationId: getUsers
      responses:
        200:
          description: OK
`)
	result := Parse(doc, Options{})

	require.Len(t, result.Resources, 1)
	assert.Equal(t, "users", result.Resources[0].Tag)
	assert.Equal(t, "", result.Resources[0].Description)
	require.Len(t, result.Resources[0].Operations, 1)
	assert.Equal(t, "getUsers", result.Resources[0].Operations[0].OperationID)
	assert.Empty(t, result.SchemaGroups)
	assert.Empty(t, result.AuthSchemes)
}

func TestParseIsDeterministic(t *testing.T) {
	doc := loadSpec(t, petstoreSpec)
	opts := Options{GroupBy: GroupByAuto, Filter: Filter{ExcludePaths: PrefixPatterns("/internal")}}

	first := Parse(doc, opts)
	second := Parse(doc, opts)
	assert.Equal(t, first, second)

	reloaded := Parse(loadSpec(t, petstoreSpec), opts)
	assert.Equal(t, first, reloaded)
}

func TestParseMeta(t *testing.T) {
	result := Parse(loadSpec(t, petstoreSpec), Options{})
	meta := result.Meta

	assert.Equal(t, "pet-store-api", meta.Name)
	assert.Equal(t, "Pet Store API", meta.Title)
	assert.Equal(t, "Manage pets and orders.", meta.Description)
	assert.Equal(t, "1.0", meta.Version)
	assert.Equal(t, "3.0.3", meta.OpenAPIVersion)
	require.NotNil(t, meta.License)
	assert.Equal(t, "MIT", meta.License.Name)
	assert.Equal(t, "https://opensource.org/licenses/MIT", meta.License.URL)
	assert.Equal(t, "api@example.com", meta.Contact)
	assert.Equal(t, []ir.ServerDocument{{URL: "https://api.example.com/v1", Description: "Production"}}, meta.Servers)
	assert.Equal(t, []string{"oauth", "apiKey", "bearer", "oidc", "shared"}, meta.SecuritySchemes)
}

func TestParseSkillNameOverride(t *testing.T) {
	result := Parse(loadSpec(t, petstoreSpec), Options{SkillName: "custom-skill"})
	assert.Equal(t, "custom-skill", result.Meta.Name)
}

func TestParseResources(t *testing.T) {
	result := Parse(loadSpec(t, petstoreSpec), Options{})

	assert.Equal(t, []string{"pets", "store"}, resourceTags(result))

	pets := findResource(t, result, "pets")
	assert.Equal(t, "Pet operations", pets.Description)
	assert.Equal(t, []string{"listPets", "createPet", "delete--pets-{petId}"}, operationIDs(pets))

	store := findResource(t, result, "store")
	assert.Equal(t, "", store.Description)
	require.Len(t, store.Operations, 1)
	op := store.Operations[0]
	assert.Equal(t, "get--api-v1-store-orders", op.OperationID)
	assert.Equal(t, "GET", op.Method)
	assert.Equal(t, "store", op.Tag)
	assert.Equal(t, "List orders", op.Summary)
}

func TestParseOperationMapping(t *testing.T) {
	result := Parse(loadSpec(t, petstoreSpec), Options{})

	t.Run("parameters drop references", func(t *testing.T) {
		op := findOperation(t, result, "listPets")
		require.Len(t, op.Parameters, 1)
		p := op.Parameters[0]
		assert.Equal(t, "limit", p.Name)
		assert.Equal(t, "query", p.In)
		assert.Equal(t, "integer (int32)", p.Type)
		assert.False(t, p.Required)
		assert.Equal(t, "Page size", p.Description)
		require.NotNil(t, p.Schema)
		require.NotNil(t, p.Schema.Inline)
		assert.Equal(t, ir.SchemaTypePrimitive, p.Schema.Inline.Type)
		assert.Nil(t, op.RequestBody)
	})

	t.Run("array of reference response", func(t *testing.T) {
		op := findOperation(t, result, "listPets")
		require.Len(t, op.Responses, 1)
		assert.Equal(t, "200", op.Responses[0].Status)
		assert.Equal(t, "A list", op.Responses[0].Description)
		assert.Equal(t, &ir.SchemaRefDocument{Ref: "Pet[]"}, op.Responses[0].Schema)
	})

	t.Run("request body", func(t *testing.T) {
		op := findOperation(t, result, "createPet")
		require.NotNil(t, op.RequestBody)
		assert.Equal(t, "Pet to add", op.RequestBody.Description)
		assert.True(t, op.RequestBody.Required)
		assert.Equal(t, []string{"application/xml", "application/json"}, op.RequestBody.ContentTypes)
		assert.Equal(t, &ir.SchemaRefDocument{Ref: "PetInput"}, op.RequestBody.Schema)
	})

	t.Run("responses keep declaration order", func(t *testing.T) {
		op := findOperation(t, result, "createPet")
		require.Len(t, op.Responses, 2)
		assert.Equal(t, "201", op.Responses[0].Status)
		assert.Equal(t, "Created", op.Responses[0].Description)
		assert.Equal(t, &ir.SchemaRefDocument{Ref: "Pet"}, op.Responses[0].Schema)
		assert.Equal(t, ir.ResponseDocument{Status: "default", Description: "(reference)"}, op.Responses[1])
	})

	t.Run("security is flattened", func(t *testing.T) {
		op := findOperation(t, result, "createPet")
		assert.Equal(t, []ir.SecurityRequirementDocument{
			{Name: "apiKey", Scopes: []string{}},
			{Name: "oauth", Scopes: []string{"write:pets", "read:pets"}},
			{Name: "apiKey", Scopes: []string{}},
		}, op.Security)
	})

	t.Run("deprecated flag", func(t *testing.T) {
		op := findOperation(t, result, "delete--pets-{petId}")
		assert.True(t, op.Deprecated)
		assert.Equal(t, "DELETE", op.Method)
		assert.Equal(t, "/pets/{petId}", op.Path)
	})
}

func TestParseRequestBodyUsesFirstContentType(t *testing.T) {
	doc := loadSpec(t, `
openapi: 3.0.0
info:
  title: Upload
  version: "1"
paths:
  /files:
    post:
      operationId: upload
      requestBody:
        content:
          multipart/form-data:
            schema:
              type: object
              properties:
                file:
                  type: string
                  format: binary
          text/plain:
            schema:
              type: string
      responses:
        204:
          description: Stored
  /exports:
    post:
      operationId: export
      requestBody:
        content:
          application/xml:
            schema:
              $ref: '#/components/schemas/Xml'
          application/json:
            schema:
              $ref: '#/components/schemas/Json'
      responses:
        204:
          description: Stored
  /files/{id}:
    put:
      operationId: replace
      requestBody:
        $ref: '#/components/requestBodies/File'
      responses:
        204:
          description: Stored
`)
	result := Parse(doc, Options{})

	upload := findOperation(t, result, "upload")
	require.NotNil(t, upload.RequestBody)
	assert.Equal(t, []string{"multipart/form-data", "text/plain"}, upload.RequestBody.ContentTypes)
	require.NotNil(t, upload.RequestBody.Schema)
	require.NotNil(t, upload.RequestBody.Schema.Inline)
	assert.Equal(t, ir.InlineSchemaName, upload.RequestBody.Schema.Inline.Name)
	require.Len(t, upload.RequestBody.Schema.Inline.Fields, 1)
	assert.Equal(t, "string (binary)", upload.RequestBody.Schema.Inline.Fields[0].Type)
	assert.Nil(t, upload.Responses[0].Schema)

	export := findOperation(t, result, "export")
	require.NotNil(t, export.RequestBody)
	assert.Equal(t, []string{"application/xml", "application/json"}, export.RequestBody.ContentTypes)
	assert.Equal(t, &ir.SchemaRefDocument{Ref: "Xml"}, export.RequestBody.Schema)

	replace := findOperation(t, result, "replace")
	assert.Nil(t, replace.RequestBody)
}

func TestParseExcludeDeprecated(t *testing.T) {
	result := Parse(loadSpec(t, petstoreSpec), Options{Filter: Filter{ExcludeDeprecated: true}})
	pets := findResource(t, result, "pets")
	assert.Equal(t, []string{"listPets", "createPet"}, operationIDs(pets))
}

const groupingSpec = `
openapi: 3.0.0
info:
  title: Grouping
  version: "1"
paths:
  /api/v2/accounts:
    get:
      operationId: listAccounts
      responses:
        200:
          description: OK
  /api/v2/accounts/{id}:
    get:
      operationId: getAccount
      tags: [accounts, admin]
      responses:
        200:
          description: OK
  /{tenant}/reports:
    get:
      operationId: listReports
      responses:
        200:
          description: OK
  /health:
    get:
      operationId: health
      tags: [ops]
      responses:
        200:
          description: OK
`

func TestResourceNamesByStrategy(t *testing.T) {
	doc := loadSpec(t, groupingSpec)

	tests := []struct {
		groupBy  GroupBy
		expected map[string][]string
	}{
		{GroupByTags, map[string][]string{
			"default":  {"listAccounts", "listReports"},
			"accounts": {"getAccount"},
			"admin":    {"getAccount"},
			"ops":      {"health"},
		}},
		{GroupByPath, map[string][]string{
			"accounts": {"listAccounts", "getAccount"},
			"default":  {"listReports"},
			"health":   {"health"},
		}},
		{GroupByAuto, map[string][]string{
			"accounts": {"listAccounts", "getAccount"},
			"admin":    {"getAccount"},
			"default":  {"listReports"},
			"ops":      {"health"},
		}},
	}

	for _, test := range tests {
		t.Run(string(test.groupBy), func(t *testing.T) {
			result := Parse(doc, Options{GroupBy: test.groupBy})
			got := map[string][]string{}
			for _, r := range result.Resources {
				got[r.Tag] = operationIDs(r)
			}
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestAutoGroupingMatchesTagsAndPath(t *testing.T) {
	doc := loadSpec(t, groupingSpec)
	paths := doc.Paths.Map()

	for _, path := range openapi.OrderedKeys(doc, paths, "paths") {
		op := paths[path].Get
		auto := resourceNames(path, op, GroupByAuto)
		if len(op.Tags) > 0 {
			assert.Equal(t, resourceNames(path, op, GroupByTags), auto, path)
		} else {
			assert.Equal(t, resourceNames(path, op, GroupByPath), auto, path)
		}
	}
}

func TestMultiTagOperationsAreCopied(t *testing.T) {
	result := Parse(loadSpec(t, groupingSpec), Options{GroupBy: GroupByTags})

	accounts := findResource(t, result, "accounts")
	admin := findResource(t, result, "admin")
	require.Len(t, accounts.Operations, 1)
	require.Len(t, admin.Operations, 1)
	assert.Equal(t, "accounts", accounts.Operations[0].Tag)
	assert.Equal(t, "admin", admin.Operations[0].Tag)
}

func TestResourceFromPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/users", "users"},
		{"/users/{id}", "users"},
		{"/api/users", "users"},
		{"/api/v1/users/{id}", "users"},
		{"/v2/pets", "pets"},
		{"/API/V1/orders", "orders"},
		{"/api/api/orders", "api"},
		{"/apix/users", "apix"},
		{"/v1", "v1"},
		{"/", "default"},
		{"/api/v1/", "default"},
		{"/{id}", "default"},
		{"/api/{tenant}/items", "default"},
	}

	for _, test := range tests {
		result := resourceFromPath(test.input)
		if result != test.expected {
			t.Errorf("resourceFromPath(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestResourceOrderingByOperationCount(t *testing.T) {
	doc := loadSpec(t, `
openapi: 3.0.0
info:
  title: Ordering
  version: "1"
paths:
  /one:
    get:
      tags: [one]
      responses: {}
  /two:
    get:
      tags: [two]
      responses: {}
    post:
      tags: [two]
      responses: {}
  /three:
    get:
      tags: [three]
      responses: {}
    put:
      tags: [three]
      responses: {}
    delete:
      tags: [three]
      responses: {}
  /also-one:
    get:
      tags: [also-one]
      responses: {}
`)
	result := Parse(doc, Options{})
	assert.Equal(t, []string{"three", "two", "one", "also-one"}, resourceTags(result))
}

func TestTagFilterPrecedence(t *testing.T) {
	doc := loadSpec(t, groupingSpec)

	tests := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{"include wins over exclude", Filter{IncludeTags: []string{"accounts"}, ExcludeTags: []string{"accounts"}}, []string{"accounts"}},
		{"include only", Filter{IncludeTags: []string{"ops", "default"}}, []string{"default", "ops"}},
		{"exclude only", Filter{ExcludeTags: []string{"admin", "default"}}, []string{"accounts", "ops"}},
		{"no filter", Filter{}, []string{"accounts", "admin", "default", "ops"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Parse(doc, Options{Filter: test.filter})
			assert.ElementsMatch(t, test.expected, resourceTags(result))
		})
	}
}

func TestIncludeTagKeepsTaggedOperation(t *testing.T) {
	doc := loadSpec(t, `
openapi: 3.0.0
info:
  title: Precedence
  version: "1"
paths:
  /a:
    get:
      operationId: opA
      tags: [A]
      responses: {}
  /b:
    get:
      operationId: opB
      tags: [B]
      responses: {}
`)
	result := Parse(doc, Options{Filter: Filter{IncludeTags: []string{"A"}, ExcludeTags: []string{"B"}}})
	require.Len(t, result.Resources, 1)
	assert.Equal(t, []string{"opA"}, operationIDs(result.Resources[0]))
}

const exclusionSpec = `
openapi: 3.0.0
info:
  title: Exclusion
  version: "1"
paths:
  /internal:
    get:
      operationId: internalRoot
      tags: [t]
      responses: {}
  /internal/jobs:
    get:
      operationId: internalJobs
      tags: [t]
      responses: {}
  /internal-other:
    get:
      operationId: internalOther
      tags: [t]
      responses: {}
  /public:
    get:
      operationId: public
      tags: [t]
      responses: {}
    post:
      operationId: publicCreate
      tags: [t]
      responses: {}
  /admin/users/{id}:
    get:
      operationId: adminUser
      tags: [t]
      responses: {}
`

func TestPathExclusion(t *testing.T) {
	doc := loadSpec(t, exclusionSpec)

	globs, err := GlobPatterns("/admin/**")
	require.NoError(t, err)
	regexes, err := RegexPatterns(`^/internal/`)
	require.NoError(t, err)

	tests := []struct {
		name     string
		patterns []PathPattern
		expected []string
	}{
		{"prefix excludes raw string prefix", PrefixPatterns("/internal"), []string{"public", "publicCreate", "adminUser"}},
		{"regex", regexes, []string{"internalRoot", "internalOther", "public", "publicCreate", "adminUser"}},
		{"glob", globs, []string{"internalRoot", "internalJobs", "internalOther", "public", "publicCreate"}},
		{"exact path", PrefixPatterns("/public"), []string{"internalRoot", "internalJobs", "internalOther", "adminUser"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Parse(doc, Options{Filter: Filter{ExcludePaths: test.patterns}})
			require.Len(t, result.Resources, 1)
			assert.Equal(t, test.expected, operationIDs(result.Resources[0]))
		})
	}
}

func TestParseSchemaGroups(t *testing.T) {
	result := Parse(loadSpec(t, petstoreSpec), Options{})

	prefixes := make([]string, 0, len(result.SchemaGroups))
	for _, g := range result.SchemaGroups {
		prefixes = append(prefixes, g.Prefix)
	}
	assert.Equal(t, []string{"Pet", "user", "Tag", "Alias"}, prefixes)

	names := make([]string, 0)
	for _, s := range result.SchemaGroups[0].Schemas {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Pet", "PetInput", "PetStatus", "PetList"}, names)
}

func TestParseSecuritySchemes(t *testing.T) {
	result := Parse(loadSpec(t, petstoreSpec), Options{})

	require.Len(t, result.AuthSchemes, 4)

	oauth := result.AuthSchemes[0]
	assert.Equal(t, "oauth", oauth.Name)
	assert.Equal(t, AuthOAuth2, oauth.Type)
	assert.Equal(t, []ir.OAuthFlowDocument{
		{
			Name:     "clientCredentials",
			TokenURL: "https://auth.example.com/token",
			Scopes: []ir.ScopeDocument{
				{Name: "write:pets", Description: "modify pets"},
				{Name: "read:pets", Description: "read pets"},
			},
		},
		{
			Name:             "authorizationCode",
			AuthorizationURL: "https://auth.example.com/authorize",
			TokenURL:         "https://auth.example.com/token",
		},
	}, oauth.Flows)
	assert.Empty(t, oauth.In)
	assert.Empty(t, oauth.Scheme)

	assert.Equal(t, ir.AuthSchemeDocument{Name: "apiKey", Type: AuthAPIKey, In: "header", ParamName: "X-API-Key"}, result.AuthSchemes[1])
	assert.Equal(t, ir.AuthSchemeDocument{Name: "bearer", Type: AuthHTTP, Scheme: "bearer", BearerFormat: "JWT"}, result.AuthSchemes[2])
	assert.Equal(t, ir.AuthSchemeDocument{
		Name:             "oidc",
		Type:             AuthOpenIDConnect,
		OpenIDConnectURL: "https://auth.example.com/.well-known/openid-configuration",
	}, result.AuthSchemes[3])
}

func TestParseProgrammaticDocumentUsesLexicalOrder(t *testing.T) {
	paths := openapi3.NewPaths()
	for _, p := range []string{"/zebra", "/apple", "/mango"} {
		paths.Set(p, &openapi3.PathItem{Get: &openapi3.Operation{Tags: []string{"fruit"}, OperationID: p[1:]}})
	}
	doc := openapi.NewDocument(&openapi3.T{
		OpenAPI: "3.0.0",
		Info:    &openapi3.Info{Title: "Fruit", Version: "1"},
		Paths:   paths,
	})
	result := Parse(doc, Options{})
	require.Len(t, result.Resources, 1)
	assert.Equal(t, []string{"apple", "mango", "zebra"}, operationIDs(result.Resources[0]))
}

func TestParseGroupBy(t *testing.T) {
	tests := []struct {
		input    string
		expected GroupBy
		wantErr  bool
	}{
		{"", GroupByAuto, false},
		{"auto", GroupByAuto, false},
		{"tags", GroupByTags, false},
		{"PATH", GroupByPath, false},
		{" tags ", GroupByTags, false},
		{"resource", "", true},
	}

	for _, test := range tests {
		result, err := ParseGroupBy(test.input)
		if test.wantErr {
			assert.Error(t, err, test.input)
			continue
		}
		require.NoError(t, err, test.input)
		assert.Equal(t, test.expected, result, test.input)
	}

	assert.NoError(t, Options{}.Validate())
	assert.NoError(t, Options{GroupBy: GroupByPath}.Validate())
	assert.Error(t, Options{GroupBy: "bogus"}.Validate())
}
