package validator

import (
	"errors"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/oasmock/internal/testutil"
	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/state"
)

const validatorDoc = `openapi: "3.0.0"
info: {title: validator, version: "1"}
paths:
  /objects:
    get:
      responses:
        "200":
          description: foobar
          content:
            application/json:
              schema:
                properties:
                  test:
                    type: object
                    properties:
                      id:
                        type: integer
                        format: int64
                  name:
                    type: string
                  foo:
                    type: object
                    properties:
                      bar:
                        type: object
                        properties:
                          id:
                            type: integer
                  tag:
                    type: string
  /arrays:
    get:
      responses:
        "200":
          description: foobar
          content:
            application/json:
              schema:
                type: array
                items:
                  properties:
                    id:
                      type: integer
                      format: int32
  /empty:
    get:
      responses:
        "200":
          description: foo
          content:
            application/json: {}
  /multi:
    get:
      responses:
        default:
          description: error
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Error"
        "404":
          description: missing
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Error"
        "200":
          description: ok
          content:
            application/xml:
              schema:
                $ref: "#/components/schemas/Error"
            application/json:
              schema:
                $ref: "#/components/schemas/Error"
        "201":
          description: created
components:
  schemas:
    Error:
      type: object
      properties:
        code:
          type: integer
          format: int32
        message:
          type: string
`

type fixture struct {
	doc   *openapi3.T
	deref oas.Dereferencer
}

func newFixture(t *testing.T) *fixture {
	doc := testutil.LoadDoc(t, validatorDoc)
	return &fixture{doc: doc, deref: oas.NewDereferencer(doc)}
}

func (f *fixture) op(path string) *openapi3.Operation {
	return f.doc.Paths.Value(path).Get
}

func compile(t *testing.T, s map[string]any) *state.Compiled {
	t.Helper()
	c, err := state.Compile(s, dsl.Compiler{})
	require.NoError(t, err)
	return c
}

func assertExactlyOne(t *testing.T, r *Result) {
	t.Helper()
	if r.Err != nil {
		assert.Nil(t, r.Responses)
	}
}

func TestResolve_EmptyState(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/objects"), compile(t, nil), f.deref)
	assert.NoError(t, r.Err)
	assert.Nil(t, r.Responses)
	assert.True(t, r.OK())

	// An empty state never reaches schema checks, even when a response has no schema.
	r = Resolve(f.op("/empty"), compile(t, nil), f.deref)
	assert.NoError(t, r.Err)
	assert.Nil(t, r.Responses)
}

func TestResolve_InvalidParameter(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/objects"), compile(t, map[string]any{"boom": 5}), f.deref)
	require.Error(t, r.Err)
	assert.Contains(t, r.Err.Error(), "Can't find definition for 'boom'")
	assert.True(t, errors.Is(r.Err, ErrUnresolvedKey))
	assertExactlyOne(t, r)
}

func TestResolve_EmptySchema(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/empty"), compile(t, map[string]any{"name": "x"}), f.deref)
	require.Error(t, r.Err)
	assert.Contains(t, r.Err.Error(), "No schema defined")
	assert.True(t, errors.Is(r.Err, ErrMissingSchema))

	var verr *Error
	require.ErrorAs(t, r.Err, &verr)
	assert.Equal(t, "200", verr.Code)
	assert.Equal(t, "application/json", verr.ContentType)
	assert.NotEmpty(t, verr.Hint())
	assertExactlyOne(t, r)
}

func TestResolve_CodeSpecified(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/objects"), compile(t, map[string]any{"$code": 200, "tag": "foo"}), f.deref)
	require.NoError(t, r.Err)
	assert.Equal(t, oas.CodeToMedia{
		"200": {"application/json": {
			Properties: map[string]*oas.Schema{
				"tag": {Type: oas.TypeString, Const: "foo"},
			},
		}},
	}, r.Responses)
}

func TestResolve_CodeOnly(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/multi"), compile(t, map[string]any{"$code": 404}), f.deref)
	require.NoError(t, r.Err)
	assert.Equal(t, oas.CodeToMedia{"404": {"application/json": {}}}, r.Responses)

	r = Resolve(f.op("/multi"), compile(t, map[string]any{"$code": 201}), f.deref)
	require.NoError(t, r.Err)
	assert.Equal(t, oas.CodeToMedia{"201": {}}, r.Responses)
}

func TestResolve_SizeTopLevel(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/arrays"), compile(t, map[string]any{"$size": 5}), f.deref)
	require.NoError(t, r.Err)
	assert.Equal(t, oas.CodeToMedia{
		"200": {"application/json": {MinItems: oas.Ptr(5), MaxItems: oas.Ptr(5)}},
	}, r.Responses)
}

func TestResolve_SizeWithItemConstraint(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/arrays"), compile(t, map[string]any{"$size": 2, "id": 7}), f.deref)
	require.NoError(t, r.Err)
	assert.Equal(t, oas.CodeToMedia{
		"200": {"application/json": {
			MinItems: oas.Ptr(2),
			MaxItems: oas.Ptr(2),
			Items: &oas.Schema{Properties: map[string]*oas.Schema{
				"id": {Type: oas.TypeInteger, Format: "int32", Const: 7},
			}},
		}},
	}, r.Responses)
}

func TestResolve_SizeAgainstObject(t *testing.T) {
	f := newFixture(t)
	c, err := state.Compile(map[string]any{"$size": 3, "name": "x"}, dsl.Compiler{})
	require.NoError(t, err)

	r := Resolve(f.op("/objects"), c, f.deref)
	require.NoError(t, r.Err)
	assert.Equal(t, oas.CodeToMedia{
		"200": {"application/json": {
			Properties: map[string]*oas.Schema{"name": {Type: oas.TypeString, Const: "x"}},
		}},
	}, r.Responses, "relaxed mode drops $size")

	r = Resolve(f.op("/objects"), c, f.deref, WithCompiler(dsl.Compiler{Mode: dsl.Strict}))
	require.Error(t, r.Err)
	assert.Contains(t, r.Err.Error(), "non-array")
	assert.Nil(t, r.Responses)
}

func TestResolve_MissingCode(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/objects"), compile(t, map[string]any{"$code": 404}), f.deref)
	assert.Nil(t, r.Responses)
	require.Error(t, r.Err)
	assert.Contains(t, r.Err.Error(), "Can't find response for given status code '404'!")
	assert.True(t, errors.Is(r.Err, ErrUnknownCode))
}

func TestResolve_NoCodeNested(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/objects"), compile(t, map[string]any{"test": map[string]any{"id": 5}}), f.deref)
	require.NoError(t, r.Err)
	assert.Equal(t, oas.CodeToMedia{
		"200": {"application/json": {
			Properties: map[string]*oas.Schema{
				"test": {Properties: map[string]*oas.Schema{
					"id": {Type: oas.TypeInteger, Format: "int64", Const: 5},
				}},
			},
		}},
	}, r.Responses)
}

func TestResolve_TypeMismatchIsError(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/objects"), compile(t, map[string]any{"test": map[string]any{"id": "a"}}), f.deref)
	require.Error(t, r.Err)
	assert.EqualError(t, r.Err, "Can't find definition for 'id'!")

	r = Resolve(f.op("/objects"), compile(t, map[string]any{"id": 5}), f.deref, WithCompiler(dsl.Compiler{Mode: dsl.Relaxed}))
	require.Error(t, r.Err)
	assert.EqualError(t, r.Err, "Can't find definition for 'id'!")
}

func TestResolve_AllCodes(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/multi"), compile(t, map[string]any{"message": "boom"}), f.deref)
	require.NoError(t, r.Err)

	assert.Equal(t, []string{"200", "201", "404", "default"}, r.Responses.Codes())
	fragment := &oas.Schema{Properties: map[string]*oas.Schema{
		"message": {Type: oas.TypeString, Const: "boom"},
	}}
	assert.Equal(t, fragment, r.Responses["200"]["application/json"])
	assert.Equal(t, fragment, r.Responses["200"]["application/xml"])
	assert.Equal(t, fragment, r.Responses["404"]["application/json"])
	assert.Equal(t, fragment, r.Responses["default"]["application/json"])
	assert.Empty(t, r.Responses["201"])
}

func TestResolve_PrimaryCode(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/multi"), compile(t, map[string]any{"message": "boom"}), f.deref, WithCodePolicy(PrimaryCode))
	require.NoError(t, r.Err)
	assert.Equal(t, []string{"200"}, r.Responses.Codes())
}

func TestResolve_DoesNotMutateDocument(t *testing.T) {
	f := newFixture(t)
	before := f.deref(f.op("/objects").Responses.Status(200).Value.Content["application/json"].Schema).Clone()

	r := Resolve(f.op("/objects"), compile(t, map[string]any{"tag": "x", "test": map[string]any{"id": 1}}), f.deref)
	require.NoError(t, r.Err)
	r.Responses["200"]["application/json"].Properties["tag"].Type = "changed"

	after := f.deref(f.op("/objects").Responses.Status(200).Value.Content["application/json"].Schema)
	assert.Equal(t, before, after)
	assert.Nil(t, after.Property("tag").Const)
}

func TestResolve_PetstoreRefs(t *testing.T) {
	doc := testutil.Petstore(t)
	op := doc.Paths.Value("/pets").Get
	deref := oas.NewDereferencer(doc)

	r := Resolve(op, compile(t, map[string]any{"$code": 200, "$size": 1, "name": "rex"}), deref)
	require.NoError(t, r.Err)
	assert.Equal(t, oas.CodeToMedia{
		"200": {"application/json": {
			MinItems: oas.Ptr(1),
			MaxItems: oas.Ptr(1),
			Items: &oas.Schema{Properties: map[string]*oas.Schema{
				"name": {Type: oas.TypeString, Const: "rex"},
			}},
		}},
	}, r.Responses)
}

func TestResolve_NilDereferencer(t *testing.T) {
	f := newFixture(t)
	r := Resolve(f.op("/objects"), compile(t, map[string]any{"tag": "x"}), nil)
	require.NoError(t, r.Err)
	assert.Contains(t, r.Responses["200"]["application/json"].Properties, "tag")
}

func TestParseCodePolicy(t *testing.T) {
	p, err := ParseCodePolicy("")
	require.NoError(t, err)
	assert.Equal(t, AllCodes, p)

	p, err = ParseCodePolicy("Primary")
	require.NoError(t, err)
	assert.Equal(t, PrimaryCode, p)
	assert.Equal(t, "primary", p.String())

	_, err = ParseCodePolicy("some")
	assert.Error(t, err)
}

func TestPrimary(t *testing.T) {
	assert.Equal(t, []string{"201"}, primary([]string{"101", "201", "204", "default"}))
	assert.Equal(t, []string{"2XX"}, primary([]string{"2XX", "4XX"}))
	assert.Equal(t, []string{"404"}, primary([]string{"404", "default"}))
	assert.Empty(t, primary(nil))
}
