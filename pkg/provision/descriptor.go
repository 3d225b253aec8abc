package provision

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/template"

	breverrors "github.com/brevdev/fleet/pkg/errors"
)

// MACPrefix is the VirtualBox OUI used for every generated guest MAC.
const MACPrefix = "080027"

// HostConfig is the per-host part of the topology the hypervisor needs.
type HostConfig struct {
	Box    string
	BoxURL string
}

// Descriptor describes one guest for the bring-up document.
type Descriptor struct {
	Name     string
	Hostname string
	Box      string
	BoxURL   string
	MAC      string
}

// RandomMAC returns MACPrefix followed by three bytes read from r as uppercase hex.
func RandomMAC(r io.Reader) (string, error) {
	b := make([]byte, 3)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	return fmt.Sprintf("%s%02X%02X%02X", MACPrefix, b[0], b[1], b[2]), nil
}

var (
	hostNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	macPattern      = regexp.MustCompile(`^[0-9A-F]{12}$`)
)

func (d Descriptor) Validate() error {
	if !hostNamePattern.MatchString(d.Name) {
		return breverrors.NewValidationError(fmt.Sprintf("invalid host name %q", d.Name))
	}
	if !hostNamePattern.MatchString(d.Hostname) {
		return breverrors.NewValidationError(fmt.Sprintf("invalid guest hostname %q for %s", d.Hostname, d.Name))
	}
	if strings.TrimSpace(d.Box) == "" {
		return breverrors.NewValidationError(fmt.Sprintf("host %s has no box defined", d.Name))
	}
	if !macPattern.MatchString(d.MAC) {
		return breverrors.NewValidationError(fmt.Sprintf("invalid base mac %q for %s", d.MAC, d.Name))
	}
	return nil
}

const vagrantfileTemplate = `Vagrant.configure("2") do |c|
{{- range . }}
  c.vm.define {{ ruby .Name }} do |v|
    v.vm.hostname = {{ ruby .Hostname }}
    v.vm.box = {{ ruby .Box }}
{{- if .BoxURL }}
    v.vm.box_url = {{ ruby .BoxURL }}
{{- end }}
    v.vm.base_mac = {{ ruby .MAC }}
  end
{{- end }}
end
`

var vagrantfileTmpl = template.Must(template.New("Vagrantfile").Funcs(template.FuncMap{
	"ruby": rubyString,
}).Parse(vagrantfileTemplate))

// RenderVagrantfile validates every descriptor and renders them into one Vagrantfile,
// one stanza per guest in the given order.
func RenderVagrantfile(descriptors []Descriptor) ([]byte, error) {
	if len(descriptors) == 0 {
		return nil, breverrors.NewValidationError("no hosts to provision")
	}
	seen := map[string]bool{}
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, breverrors.WrapAndTrace(err)
		}
		if seen[d.Name] {
			return nil, breverrors.NewValidationError(fmt.Sprintf("host %s is defined twice", d.Name))
		}
		seen[d.Name] = true
	}

	buf := &bytes.Buffer{}
	if err := vagrantfileTmpl.Execute(buf, descriptors); err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	return buf.Bytes(), nil
}

// rubyString renders s as a single-quoted Ruby string literal.
func rubyString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
