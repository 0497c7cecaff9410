package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidPayload marks a queue message that cannot be turned into a job.
var ErrInvalidPayload = errors.New("invalid_payload")

// JobDescriptor is the body of one queue message.
type JobDescriptor struct {
	RunID     string `json:"runId" validate:"required"`
	FileName  string `json:"fileName" validate:"required"`
	Extension string `json:"extension" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func ParseJobDescriptor(body []byte) (JobDescriptor, error) {
	if !utf8.Valid(body) {
		return JobDescriptor{}, fmt.Errorf("%w: body is not utf-8", ErrInvalidPayload)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return JobDescriptor{}, fmt.Errorf("%w: body is not a json object", ErrInvalidPayload)
	}

	// Keys are matched exactly.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return JobDescriptor{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	var job JobDescriptor
	for key, dst := range map[string]*string{
		"runId":     &job.RunID,
		"fileName":  &job.FileName,
		"extension": &job.Extension,
	} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return JobDescriptor{}, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, key, err)
		}
	}
	if err := validate.Struct(job); err != nil {
		return JobDescriptor{}, fmt.Errorf("%w: %v", ErrInvalidPayload, describeValidation(err))
	}
	if err := job.checkPathSafe(); err != nil {
		return JobDescriptor{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return job, nil
}

// Artifact is the input artifact the descriptor points at.
func (j JobDescriptor) Artifact() ArtifactRef {
	return ArtifactRef{RunID: j.RunID, Name: j.FileName, Extension: j.Extension}
}

// Fields end up in object keys and local paths.
func (j JobDescriptor) checkPathSafe() error {
	for field, v := range map[string]string{"runId": j.RunID, "fileName": j.FileName, "extension": j.Extension} {
		if strings.ContainsAny(v, `/\`) || v == "." || v == ".." {
			return fmt.Errorf("%s must be a single path segment", field)
		}
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
}
