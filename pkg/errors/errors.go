package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename config file")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config")
	ErrConfigFileExists  = fmt.Errorf("configuration file already exists")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")

	// Checksum errors.
	ErrUnsupportedAlgorithm = fmt.Errorf("unsupported checksum algorithm")
	ErrChecksumIO           = fmt.Errorf("failed to read file for checksum")
	ErrFileHashMismatch     = fmt.Errorf("file hash mismatch")

	// Store errors.
	ErrStoreMissing = fmt.Errorf("package database not found")
	ErrStoreOpen    = fmt.Errorf("failed to open package database")
	ErrStoreQuery   = fmt.Errorf("package database query failed")
	ErrStoreWrite   = fmt.Errorf("package database write failed")
	ErrReadOnly     = fmt.Errorf("package database is read-only")

	// Metadata errors.
	ErrMalformedDate  = fmt.Errorf("malformed issued date")
	ErrFeedParse      = fmt.Errorf("failed to parse update feed")
	ErrManifestParse  = fmt.Errorf("failed to parse repository manifest")
	ErrMissingPrimary = fmt.Errorf("primary database missing from manifest")
	ErrMissingInput   = fmt.Errorf("required input file missing")
	ErrRPMHeader      = fmt.Errorf("failed to read rpm header")

	// Resolution errors.
	ErrUnknownPackage = fmt.Errorf("unknown package")

	// Policy errors.
	ErrPolicyLoad      = fmt.Errorf("failed to load policy script")
	ErrPolicyExecution = fmt.Errorf("error executing policy script")
	ErrPolicyScript    = fmt.Errorf("policy script error")

	// Download errors.
	ErrDownloadFailed = fmt.Errorf("download failed")
	ErrInvalidPath    = fmt.Errorf("invalid path")

	// Host query errors.
	ErrHostQuery = fmt.Errorf("failed to query host package database")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidLogLevelWithDetails reports an unknown log level.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("invalid log level %q (valid: debug, info, warn, error): %w", level, ErrConfigValidation)
}

// ErrInvalidLogFormatWithDetails reports an unknown log format.
func ErrInvalidLogFormatWithDetails(format string) error {
	return fmt.Errorf("invalid log format %q (valid: text, json): %w", format, ErrConfigValidation)
}

// ErrInvalidFeedFormatWithDetails reports an unknown feed format.
func ErrInvalidFeedFormatWithDetails(format string) error {
	return fmt.Errorf("invalid feed format %q (valid: legacy, flat): %w", format, ErrConfigValidation)
}

// ErrEmptyFieldWithName reports a required config field left empty.
func ErrEmptyFieldWithName(name string) error {
	return fmt.Errorf("%s cannot be empty: %w", name, ErrConfigValidation)
}
