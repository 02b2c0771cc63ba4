package collector

import "fmt"

// Source names accepted by NewSource.
const (
	SourcePMSet  = "pmset"
	SourceSysfs  = "sysfs"
	SourceSystem = "system"
)

// SourceNames lists the accepted source names.
func SourceNames() []string {
	return []string{SourcePMSet, SourceSysfs, SourceSystem}
}

// NewSource builds the named battery source. command is only used by the
// pmset source.
func NewSource(name string, command []string) (Source, error) {
	switch name {
	case SourcePMSet:
		return NewPMSetSource(command), nil
	case SourceSysfs:
		return NewSysfsSource(), nil
	case SourceSystem:
		return NewSystemSource(), nil
	default:
		return nil, fmt.Errorf("unknown battery source %q", name)
	}
}
