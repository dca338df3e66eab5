package config

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrLegacyConflict is returned when a file mixes a legacy section with its
// current replacement.
var ErrLegacyConflict = errors.New("legacy key conflicts with its replacement")

// upgradeLegacyTOML rewrites the layout written for the original alchemize
// scripts into the current one and reports whether anything changed:
//
//	[app] consumer_dir               -> [app] pending_rename_dir
//	[sorting.folder.<name>]          -> [[sorting.folder]] name = "<name>"
//	[logseq] logseq_dir              -> [journal] dir
//	[logseq] logseq_model_mode       -> [journal] model_mode
//	[logseq.tags.<name>]             -> [[journal.tag]] name = "<name>"
//
// Named tables become rules in the order they are declared in the file.
func upgradeLegacyTOML(data []byte) ([]byte, bool, error) {
	var doc map[string]any
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, false, err
	}

	changed := false
	if app, ok := doc["app"].(map[string]any); ok {
		if v, ok := app["consumer_dir"]; ok {
			if _, dup := app["pending_rename_dir"]; dup {
				return nil, false, fmt.Errorf("%w: app.consumer_dir and app.pending_rename_dir", ErrLegacyConflict)
			}
			app["pending_rename_dir"] = v
			delete(app, "consumer_dir")
			changed = true
		}
	}

	if sorting, ok := doc["sorting"].(map[string]any); ok {
		if folders, ok := sorting["folder"].(map[string]any); ok {
			rules, err := namedTables(md, folders, "sorting", "folder")
			if err != nil {
				return nil, false, err
			}
			setRules(sorting, "folder", rules)
			changed = true
		}
	}

	if v, ok := doc["logseq"]; ok {
		logseq, ok := v.(map[string]any)
		if !ok {
			return nil, false, errors.New("logseq must be a table")
		}
		if _, dup := doc["journal"]; dup {
			return nil, false, fmt.Errorf("%w: [logseq] and [journal]", ErrLegacyConflict)
		}
		journal := make(map[string]any, len(logseq))
		for k, v := range logseq {
			switch k {
			case "logseq_dir":
				journal["dir"] = v
			case "logseq_model_mode":
				journal["model_mode"] = v
			case "tags":
				if tags, ok := v.(map[string]any); ok {
					rules, err := namedTables(md, tags, "logseq", "tags")
					if err != nil {
						return nil, false, err
					}
					setRules(journal, "tag", rules)
				} else {
					journal["tags"] = v
				}
			default:
				journal[k] = v
			}
		}
		doc["journal"] = journal
		delete(doc, "logseq")
		changed = true
	}

	if !changed {
		return data, false, nil
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, false, fmt.Errorf("rewrite legacy layout: %w", err)
	}
	return buf.Bytes(), true, nil
}

func setRules(section map[string]any, key string, rules []map[string]any) {
	delete(section, key)
	if len(rules) > 0 {
		section[key] = rules
	}
}

// namedTables turns the tables under parent into a rule list, each rule
// named after its table. Order follows the first appearance of each name
// in the file.
func namedTables(md toml.MetaData, tables map[string]any, parent ...string) ([]map[string]any, error) {
	var names []string
	seen := make(map[string]bool, len(tables))
	for _, key := range md.Keys() {
		if len(key) <= len(parent) || !hasPrefix(key, parent) {
			continue
		}
		if name := key[len(parent)]; !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// Names the metadata missed still load, after the ordered ones.
	var rest []string
	for name := range tables {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	rules := make([]map[string]any, 0, len(names))
	for _, name := range names {
		t, ok := tables[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s.%s must be a table", strings.Join(parent, "."), name)
		}
		rule := map[string]any{"name": name}
		for k, v := range t {
			rule[k] = v
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func hasPrefix(key toml.Key, prefix []string) bool {
	for i, p := range prefix {
		if key[i] != p {
			return false
		}
	}
	return true
}
