package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cteq/internal/compiler"
	"github.com/roach88/cteq/internal/schema"
)

// LoadResult contains the base schema loaded from a directory.
type LoadResult struct {
	Schema    schema.Schema
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchema loads the CUE files of dir and compiles the base tables.
// Every failure is a *LoadError.
func LoadSchema(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}
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

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	s, err := compiler.CompileSchema(value)
	if err != nil {
		return nil, convertCompileError(err)
	}

	return &LoadResult{
		Schema:    s,
		CUEValue:  value,
		FileCount: len(cueFiles),
	}, nil
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

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field, compileErr.Message),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
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

	// Schema errors
	ErrCodeNoTables    = "E101" // No table block, or no tables in it
	ErrCodeBadTable    = "E102" // Table is not a struct or has no columns
	ErrCodeInvalidType = "E104" // Invalid column type (e.g., float)
	ErrCodeBadName     = "E105" // Table or column name is not an identifier

	// Composition errors, one per schema.ErrorCode
	ErrCodeConflict    = "E201" // SCHEMA_CONFLICT
	ErrCodeMismatch    = "E202" // SCHEMA_MISMATCH
	ErrCodeEmptyName   = "E203" // EMPTY_NAME
	ErrCodeInvalidName = "E204" // INVALID_NAME

	// Chain and statement errors
	ErrCodeChainFile    = "E301" // Chain file unreadable or invalid
	ErrCodeCompileSQL   = "E302" // Query library rejected the statement
	ErrCodeVerifySQL    = "E303" // Compiled SQL does not prepare
	ErrCodeCatalog      = "E304" // Catalog open/read/write failed
	ErrCodeScenarioFail = "E305" // One or more scenarios failed
)

// MapFieldToErrorCode maps a compiler error field to an error code.
// Fields are "table", "table.<name>" or "table.<name>.<column>".
func MapFieldToErrorCode(field, message string) string {
	if strings.Contains(message, string(schema.ErrCodeEmptyName)) ||
		strings.Contains(message, string(schema.ErrCodeInvalidName)) {
		return ErrCodeBadName
	}
	switch strings.Count(field, ".") {
	case 0:
		if field == "table" {
			return ErrCodeNoTables
		}
		return ErrCodeGeneric
	case 1:
		return ErrCodeBadTable
	default:
		return ErrCodeInvalidType
	}
}

// compositionCode maps a composer error to its CLI error code.
func compositionCode(err error) string {
	code, ok := schema.CodeOf(err)
	if !ok {
		return ErrCodeGeneric
	}
	switch code {
	case schema.ErrCodeConflict:
		return ErrCodeConflict
	case schema.ErrCodeMismatch:
		return ErrCodeMismatch
	case schema.ErrCodeEmptyName:
		return ErrCodeEmptyName
	case schema.ErrCodeInvalidName:
		return ErrCodeInvalidName
	default:
		return ErrCodeGeneric
	}
}
