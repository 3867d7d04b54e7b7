// Package naming derives dbt model names and file names from view
// references using a small set of presets.
package naming

import (
	"fmt"
	"strings"

	"github.com/K-Oxon/dbt-view-importer/view"
)

// Preset selects the strategy used to derive a model name from a view ref.
type Preset string

const (
	// PresetFull names models "dataset__name".
	PresetFull Preset = "full"

	// PresetTableOnly names models after the bare view name.
	PresetTableOnly Preset = "table_only"

	// PresetDatasetWithoutPrefix behaves like PresetFull but strips the
	// layer prefix (e.g. "dm_", "stg_") from the dataset first.
	PresetDatasetWithoutPrefix Preset = "dataset_without_prefix"
)

// DefaultPreset is used when the caller does not select a preset.
const DefaultPreset = PresetFull

// Presets lists every supported preset, for help output and validation
// messages.
func Presets() []Preset {
	return []Preset{PresetFull, PresetTableOnly, PresetDatasetWithoutPrefix}
}

// Validate returns an error naming the offending value when p is not a
// recognized preset. The empty preset is not valid; callers should default
// to DefaultPreset before validating.
func (p Preset) Validate() error {
	for _, known := range Presets() {
		if p == known {
			return nil
		}
	}
	return fmt.Errorf("unsupported naming preset %q (supported: %v)", string(p), Presets())
}

// ModelName derives the dbt model name for ref. It is total for well-formed
// refs and never fails: a dataset with an unexpected shape degrades to the
// PresetFull behavior, since a missing file name is worse than an imperfect
// one. Unknown presets also degrade to PresetFull.
func ModelName(ref view.Ref, preset Preset) string {
	switch preset {
	case PresetTableOnly:
		return ref.Name
	case PresetDatasetWithoutPrefix:
		return stripDatasetPrefix(ref.Dataset) + "__" + ref.Name
	default:
		return ref.Dataset + "__" + ref.Name
	}
}

// stripDatasetPrefix drops the layer prefix from a dataset name: the segment
// before the first underscore, provided a non-empty remainder exists.
// "dm_sales" becomes "sales"; "sales" stays "sales".
func stripDatasetPrefix(dataset string) string {
	prefix, rest, found := strings.Cut(dataset, "_")
	if !found || prefix == "" || rest == "" {
		return dataset
	}
	return rest
}

// FileName derives the output file name for ref: the model name plus the
// given extension. For yml sidecar files a prefix may be supplied, producing
// dbt's "_model.yml" convention.
func FileName(ref view.Ref, preset Preset, ext, ymlPrefix string) string {
	name := ModelName(ref, preset)
	if ext == "yml" && ymlPrefix != "" {
		return ymlPrefix + name + "." + ext
	}
	return name + "." + ext
}
