// Package testutil provides specification fixtures and filesystem helpers
// shared by package tests
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// NumberSpec defines the machine "number" from number.rl: an optional
// minus sign followed by digits, with an action on each digit.
const NumberSpec = `<ragel filename="number.rl">
  <ragel_def name="number">
    <machine>
      <action_list>
        <action id="0" name="digit" line="7">n = n * 10 + (*p - 48);</action>
        <action id="1" name="sign" line="9">neg = 1;</action>
      </action_list>
      <start_state>0</start_state>
      <state_list>
        <state id="0">
          <trans_list>
            <t lo="45" hi="45" target="1" actions="1"/>
            <t lo="48" hi="57" target="2" actions="0"/>
          </trans_list>
        </state>
        <state id="1">
          <trans_list><t lo="48" hi="57" target="2" actions="0"/></trans_list>
        </state>
        <state id="2" final="t">
          <trans_list><t lo="48" hi="57" target="2" actions="0"/></trans_list>
        </state>
      </state_list>
    </machine>
  </ragel_def>
</ragel>
`

// BadSpec defines a valid machine "good" followed by "broken", whose only
// transition targets the undefined state 5.
const BadSpec = `<ragel filename="bad.rl">
  <ragel_def name="good">
    <machine>
      <start_state>0</start_state>
      <state_list><state id="0" final="t"><trans_list><t lo="97" hi="97" target="0"/></trans_list></state></state_list>
    </machine>
  </ragel_def>
  <ragel_def name="broken">
    <machine>
      <start_state>0</start_state>
      <state_list><state id="0"><trans_list><t lo="97" hi="97" target="5"/></trans_list></state></state_list>
    </machine>
  </ragel_def>
</ragel>
`

// Spec builds a specification with one definition per name. Each machine
// accepts one or more lowercase letters.
func Spec(names ...string) string {
	var sb strings.Builder
	sb.WriteString("<ragel>\n")
	for _, name := range names {
		fmt.Fprintf(&sb, `  <ragel_def name=%q>
    <machine>
      <start_state>0</start_state>
      <state_list>
        <state id="0"><trans_list><t lo="97" hi="122" target="1"/></trans_list></state>
        <state id="1" final="t"><trans_list><t lo="97" hi="122" target="1"/></trans_list></state>
      </state_list>
    </machine>
  </ragel_def>
`, name)
	}
	sb.WriteString("</ragel>\n")
	return sb.String()
}

// WithSource returns spec with the root filename attribute set to name
func WithSource(spec, name string) string {
	const attr = ` filename="`
	end := strings.Index(spec, ">")
	head := spec[:end]
	if i := strings.Index(head, attr); i >= 0 {
		rest := head[i+len(attr):]
		head = head[:i] + rest[strings.Index(rest, `"`)+1:]
	}
	return head + attr + name + `"` + spec[end:]
}

// WriteFile writes content to dir/name and returns the path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// DirEntries returns the sorted names in dir
func DirEntries(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Chdir changes the working directory to dir for the duration of the test
// and restores it on cleanup, like testing.T.Chdir in Go 1.24
func Chdir(t testing.TB, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			panic("testutil.Chdir: restoring working directory: " + err.Error())
		}
	})
}
