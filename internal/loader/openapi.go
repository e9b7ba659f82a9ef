package loader

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/su1ph3r/vigil/pkg/types"
)

// ScaffoldOptions tunes test case generation from an OpenAPI document
type ScaffoldOptions struct {
	// DefaultPathValue fills path parameters that have no example
	DefaultPathValue string
	// LoginEndpoint, when it matches an operation path, is scaffolded first
	LoginEndpoint string
}

// scaffoldMethods fixes the method order within one path
var scaffoldMethods = []string{"POST", "GET", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}

// FromOpenAPI scaffolds one test case per operation of an OpenAPI 3 document.
// Paths are sorted so repeated scaffolds produce identical output.
func FromOpenAPI(path string, opts ScaffoldOptions) ([]types.TestCase, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	return ScaffoldDocument(doc, opts), nil
}

// ScaffoldDocument scaffolds test cases from a loaded document
func ScaffoldDocument(doc *openapi3.T, opts ScaffoldOptions) []types.TestCase {
	if opts.DefaultPathValue == "" {
		opts.DefaultPathValue = "1"
	}
	if doc.Paths == nil {
		return nil
	}

	paths := make([]string, 0, doc.Paths.Len())
	for p := range doc.Paths.Map() {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var login, rest []types.TestCase
	for _, p := range paths {
		item := doc.Paths.Value(p)
		if item == nil {
			continue
		}
		for _, method := range scaffoldMethods {
			op := item.GetOperation(method)
			if op == nil {
				continue
			}

			tc := scaffoldOperation(doc, p, method, item, op, opts)
			if opts.LoginEndpoint != "" && p == opts.LoginEndpoint && method == "POST" {
				login = append(login, tc)
			} else {
				rest = append(rest, tc)
			}
		}
	}

	return append(login, rest...)
}

func scaffoldOperation(doc *openapi3.T, path, method string, item *openapi3.PathItem, op *openapi3.Operation, opts ScaffoldOptions) types.TestCase {
	name := op.Summary
	if name == "" {
		name = op.OperationID
	}
	if name == "" {
		name = method + " " + path
	}

	params := make(openapi3.Parameters, 0, len(item.Parameters)+len(op.Parameters))
	params = append(params, item.Parameters...)
	params = append(params, op.Parameters...)

	tc := types.TestCase{
		Name:           name,
		Method:         method,
		Endpoint:       fillPathParams(path, params, opts.DefaultPathValue),
		ExpectedStatus: expectedStatus(op),
		RequiresAuth:   requiresAuth(doc, op),
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		if example := bodyExample(op.RequestBody.Value); example != nil {
			if data, err := json.Marshal(example); err == nil {
				tc.Body = data
			}
		}
	}

	return tc
}

// expectedStatus returns the lowest documented 2xx code, or 200
func expectedStatus(op *openapi3.Operation) int {
	if op.Responses == nil {
		return 200
	}

	best := 0
	for code := range op.Responses.Map() {
		n, err := strconv.Atoi(code)
		if err != nil || n < 200 || n > 299 {
			continue
		}
		if best == 0 || n < best {
			best = n
		}
	}
	if best == 0 {
		return 200
	}
	return best
}

// requiresAuth reports whether the operation, or failing that the document,
// declares a non-empty security requirement
func requiresAuth(doc *openapi3.T, op *openapi3.Operation) bool {
	if op.Security != nil {
		return hasRequirement(*op.Security)
	}
	return hasRequirement(doc.Security)
}

func hasRequirement(reqs openapi3.SecurityRequirements) bool {
	for _, r := range reqs {
		if len(r) > 0 {
			return true
		}
	}
	return false
}

// fillPathParams replaces {name} segments with parameter examples
func fillPathParams(path string, params openapi3.Parameters, fallback string) string {
	for _, ref := range params {
		if ref == nil || ref.Value == nil || ref.Value.In != openapi3.ParameterInPath {
			continue
		}
		param := ref.Value

		value := fallback
		if param.Example != nil {
			value = fmt.Sprint(param.Example)
		} else if param.Schema != nil && param.Schema.Value != nil && param.Schema.Value.Example != nil {
			value = fmt.Sprint(param.Schema.Value.Example)
		}
		path = strings.ReplaceAll(path, "{"+param.Name+"}", url.PathEscape(value))
	}

	// Undeclared parameters still need a value to form a valid request
	for {
		start := strings.Index(path, "{")
		if start < 0 {
			break
		}
		end := strings.Index(path[start:], "}")
		if end < 0 {
			break
		}
		path = path[:start] + fallback + path[start+end+1:]
	}

	return path
}

// bodyExample returns the JSON example of a request body, building one from
// property examples when none is given
func bodyExample(body *openapi3.RequestBody) interface{} {
	media := body.Content.Get("application/json")
	if media == nil {
		return nil
	}

	if media.Example != nil {
		return media.Example
	}

	if len(media.Examples) > 0 {
		names := make([]string, 0, len(media.Examples))
		for n := range media.Examples {
			names = append(names, n)
		}
		sort.Strings(names)
		if ex := media.Examples[names[0]]; ex != nil && ex.Value != nil {
			return ex.Value.Value
		}
	}

	if media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	schema := media.Schema.Value
	if schema.Example != nil {
		return schema.Example
	}

	obj := make(map[string]interface{})
	for name, prop := range schema.Properties {
		if prop == nil || prop.Value == nil {
			continue
		}
		switch {
		case prop.Value.Example != nil:
			obj[name] = prop.Value.Example
		case prop.Value.Default != nil:
			obj[name] = prop.Value.Default
		}
	}
	if len(obj) == 0 {
		return nil
	}
	return obj
}
