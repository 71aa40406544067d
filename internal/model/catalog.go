package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultModel is the catalog entry provisioned when nothing else is configured.
const DefaultModel = "tiny"

const downloadBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// Entry describes a whisper model that a release bundle may ship as an asset.
type Entry struct {
	Name     string
	FileName string
	URL      string
	SHA256   string
}

var catalog = map[string]Entry{
	"tiny": {
		Name:     "tiny",
		FileName: "ggml-tiny.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.bin",
		SHA256:   "be07e048e1e599ad46341c8d2a135645097a538221678b7acdd1b1919c6e1b21",
	},
	"base": {
		Name:     "base",
		FileName: "ggml-base.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin",
		SHA256:   "60ed5bc3dd14eea856493d334349b405782ddcaf0028d4b5df4088345fba2efe",
	},
	"small": {
		Name:     "small",
		FileName: "ggml-small.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin",
		SHA256:   "1be3a9b2063867b937e64e2ec7483364a79917e157fa98c5d94b5c1fffea987b",
	},
	"medium": {
		Name:     "medium",
		FileName: "ggml-medium.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium.bin",
		SHA256:   "6c14d5adee5f86394037b4e4e8b59f1673b6cee10e3cf0b11bbdbee79c156208",
	},
	"large-v3": {
		Name:     "large-v3",
		FileName: "ggml-large-v3.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3.bin",
		SHA256:   "64d182b440b98d5203c4f9bd541544d84c605196c4f7b845dfa11fb23594d1e2",
	},
}

func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Lookup(name string) (Entry, bool) {
	entry, ok := catalog[name]
	return entry, ok
}

// Resolve maps a model reference to a catalog entry. A reference ending in
// .bin that is not a catalog name is treated as a bare asset file name with
// no pinned checksum.
func Resolve(ref string) (Entry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = DefaultModel
	}

	if entry, ok := Lookup(ref); ok {
		return entry, nil
	}

	if strings.HasSuffix(strings.ToLower(ref), ".bin") {
		if strings.ContainsAny(ref, `/\`) {
			return Entry{}, errors.New("asset file name must not contain a path separator")
		}
		return Entry{Name: strings.TrimSuffix(ref, ".bin"), FileName: ref, URL: downloadBaseURL + ref}, nil
	}

	return Entry{}, fmt.Errorf("unknown model %q (known models: %s)", ref, strings.Join(Names(), ", "))
}
