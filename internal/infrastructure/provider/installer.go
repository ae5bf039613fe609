package provider

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orris-inc/keyhub/internal/domain/panel"
	"github.com/orris-inc/keyhub/internal/shared/config"
)

// AnswersPath is where the install command expects its answer file.
const AnswersPath = "/root/keyhub-panel.yaml"

type installAnswers struct {
	Panel            string       `yaml:"panel"`
	Admin            installAdmin `yaml:"admin"`
	Port             int          `yaml:"port"`
	BasePath         string       `yaml:"base_path,omitempty"`
	SubscriptionPort int          `yaml:"subscription_port,omitempty"`
	Protocols        []string     `yaml:"protocols,omitempty"`
	Inbounds         []int        `yaml:"inbounds,omitempty"`
}

type installAdmin struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ScriptInstaller installs a panel with the vendor's install script, driven
// by a YAML answer file instead of interactive prompts.
type ScriptInstaller struct {
	panelType panel.Type
	cfg       config.PanelTypeConfig
}

func NewScriptInstaller(panelType panel.Type, cfg config.PanelTypeConfig) *ScriptInstaller {
	return &ScriptInstaller{panelType: panelType, cfg: cfg}
}

func (i *ScriptInstaller) Type() panel.Type { return i.panelType }

func (i *ScriptInstaller) InstallScript(username, password string) (string, []byte, error) {
	if i.cfg.InstallCommand == "" {
		return "", nil, fmt.Errorf("no install command configured for %s", i.panelType)
	}
	if username == "" || password == "" {
		return "", nil, fmt.Errorf("panel admin credentials are required")
	}

	answers, err := yaml.Marshal(installAnswers{
		Panel:            string(i.panelType),
		Admin:            installAdmin{Username: username, Password: password},
		Port:             i.cfg.Port,
		BasePath:         i.cfg.BasePath,
		SubscriptionPort: i.cfg.SubscriptionPort,
		Protocols:        i.cfg.Protocols,
		Inbounds:         i.cfg.InboundIDs,
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to render install answers: %w", err)
	}
	return i.cfg.InstallCommand, answers, nil
}

func (i *ScriptInstaller) APIURL(host string) string {
	scheme := i.cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	if i.cfg.Port > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(i.cfg.Port))
	}
	base := strings.TrimRight(i.cfg.BasePath, "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return scheme + "://" + host + base
}
