package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	leadCreateSchema = mustCompile("lead_create.json")
	leadUpdateSchema = mustCompile("lead_update.json")
	workflowSchema   = mustCompile("workflow.json")
	sendEmailSchema  = mustCompile("send_email.json")
)

const maxJSONBody = 1 << 20

func mustCompile(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat = true
	if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return c.MustCompile(name)
}

// errInvalidBody carries the field-level problems of a rejected payload.
type errInvalidBody struct {
	message string
	details map[string]string
}

func (e *errInvalidBody) Error() string { return e.message }

// decodeValid reads a JSON body, checks it against schema and decodes it into dst.
func decodeValid(r *http.Request, schema *jsonschema.Schema, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return &errInvalidBody{message: "failed to read request body"}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &errInvalidBody{message: "invalid JSON"}
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return &errInvalidBody{message: err.Error()}
		}
		details := map[string]string{}
		for _, e := range ve.BasicOutput().Errors {
			if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
				continue
			}
			field := strings.TrimPrefix(e.InstanceLocation, "/")
			if field == "" {
				field = "body"
			}
			details[field] = e.Error
		}
		return &errInvalidBody{message: "request body does not match schema", details: details}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return &errInvalidBody{message: "invalid JSON"}
	}
	return nil
}

func writeInvalidBody(w http.ResponseWriter, err error) {
	var ib *errInvalidBody
	if errors.As(err, &ib) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR", Message: ib.message, Details: ib.details})
		return
	}
	writeErrorResponse(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
}
