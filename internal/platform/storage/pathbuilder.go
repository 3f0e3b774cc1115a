package storage

import (
	"fmt"
	"strings"
	"sync"
)

// ExportPurpose captures high-level intent for storage layout decisions.
type ExportPurpose string

const (
	PurposeProductExport ExportPurpose = "product-export"
	PurposeOrderExport   ExportPurpose = "order-export"
)

// PathParams provide required identifiers to compose storage object keys.
type PathParams struct {
	ExportID string
	FileName string
}

// PathBuilder composes the object path for a given export purpose.
type PathBuilder func(PathParams) (string, error)

var (
	pathBuilders = map[ExportPurpose]PathBuilder{
		PurposeProductExport: func(p PathParams) (string, error) { return buildExportPath("products", p) },
		PurposeOrderExport:   func(p PathParams) (string, error) { return buildExportPath("orders", p) },
	}
	pathBuildersMu sync.RWMutex
)

// RegisterPathBuilder overrides or registers a builder for a specific purpose.
func RegisterPathBuilder(purpose ExportPurpose, builder PathBuilder) {
	pathBuildersMu.Lock()
	defer pathBuildersMu.Unlock()
	if builder == nil {
		delete(pathBuilders, purpose)
		return
	}
	pathBuilders[purpose] = builder
}

// BuildObjectPath resolves the storage object path for the given purpose.
func BuildObjectPath(purpose ExportPurpose, params PathParams) (string, error) {
	pathBuildersMu.RLock()
	builder, ok := pathBuilders[purpose]
	pathBuildersMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("storage: unsupported export purpose %q", purpose)
	}
	return builder(params)
}

func buildExportPath(kind string, params PathParams) (string, error) {
	exportID, err := validateSegment("exportID", params.ExportID)
	if err != nil {
		return "", err
	}
	fileName, err := validateFileName(params.FileName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("exports/%s/%s/%s", kind, exportID, fileName), nil
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}

func validateFileName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: fileName is required")
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: fileName contains invalid path characters")
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: fileName contains invalid traversal sequence")
	}
	return value, nil
}
