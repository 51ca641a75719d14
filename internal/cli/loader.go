package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/plansql/internal/catalog"
	"github.com/roach88/plansql/internal/queryir"
)

// LoadError represents an error that occurred while loading a catalog or
// a plan file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Line    int       // plan line if available
}

func (e *LoadError) Error() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Located returns the message prefixed with its position, without the code.
func (e *LoadError) Located() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// LoadCatalog loads a CUE catalog directory. An empty dir yields a nil
// catalog: plans then carry their descriptors inline.
func LoadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		return nil, nil
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	cat, err := catalog.Load(dir)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return cat, nil
}

// LoadPlan reads and decodes a plan file against cat.
func LoadPlan(path string, cat *catalog.Catalog) (queryir.Tree, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("plan file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading plan: %v", err)}
	}

	// A nil *catalog.Catalog must reach the decoder as a nil interface.
	var qc queryir.Catalog
	if cat != nil {
		qc = cat
	}
	tree, err := queryir.DecodeYAML(data, qc)
	if err != nil {
		var de *queryir.DecodeError
		if errors.As(err, &de) {
			return nil, &LoadError{Code: ErrCodePlanInvalid, Message: de.Message, Line: de.Line}
		}
		return nil, &LoadError{Code: ErrCodePlanInvalid, Message: err.Error()}
	}
	return tree, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a catalog error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *catalog.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	// Catalog errors
	ErrCodeInvalidType     = "E104" // Unknown column type
	ErrCodeIdentity        = "E105" // More than one identity column
	ErrCodeFunctionInvalid = "E106" // Invalid function descriptor

	// Plan and generation errors
	ErrCodePlanInvalid  = "E201" // Plan file does not decode
	ErrCodePlanRejected = "E202" // Plan fails pre-flight validation
	ErrCodeUnsupported  = "E203" // Generator: UNSUPPORTED_NODE
	ErrCodeMalformed    = "E204" // Generator: MALFORMED_TREE
	ErrCodeExecFailed   = "E301" // Database execution failed
)

// MapFieldToErrorCode maps a catalog error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "type":
		return ErrCodeInvalidType
	case field == "cue":
		return ErrCodeBuildFailed
	case strings.HasPrefix(field, "entitySet.") && strings.HasSuffix(field, ".columns"):
		return ErrCodeIdentity
	case strings.HasPrefix(field, "function."):
		return ErrCodeFunctionInvalid
	default:
		return ErrCodeGeneric
	}
}
