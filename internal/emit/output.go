// SPDX-License-Identifier: MPL-2.0

package emit

const (
	// DefaultGeneratedName is the transformed aggregation file.
	DefaultGeneratedName = "index.js"
	// DefaultBackupName is the raw, untransformed aggregation file.
	DefaultBackupName = "index.bak"
	// DefaultMarker is the exported binding flagging generated output.
	DefaultMarker = "isNpm"
)

// OutputSettings names what the emitter writes.
type OutputSettings struct {
	Generated string `json:"generated" mapstructure:"generated"`
	Backup    string `json:"backup" mapstructure:"backup"`
	Marker    string `json:"marker" mapstructure:"marker"`
}

// DefaultOutputSettings returns the conventional output names.
func DefaultOutputSettings() OutputSettings {
	return OutputSettings{
		Generated: DefaultGeneratedName,
		Backup:    DefaultBackupName,
		Marker:    DefaultMarker,
	}
}

// WithDefaults fills empty fields with their defaults.
func (o OutputSettings) WithDefaults() OutputSettings {
	d := DefaultOutputSettings()
	if o.Generated == "" {
		o.Generated = d.Generated
	}
	if o.Backup == "" {
		o.Backup = d.Backup
	}
	if o.Marker == "" {
		o.Marker = d.Marker
	}
	return o
}

// Files returns the destination-relative paths owned by the emitter.
func (o OutputSettings) Files() []string {
	o = o.WithDefaults()
	return []string{o.Generated, o.Backup}
}
