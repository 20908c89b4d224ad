package commands

import (
	"os"
	"time"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/aggregator"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/dnanexus"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/notify"
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/configutil"
	configlibsql "github.com/StanfordBioinformatics/trajectoread-monitor/lib/configutil/libsql"
)

// tokenEnv is read when no token is configured.
const tokenEnv = "DX_API_TOKEN"

type DnanexusConfig struct {
	ApiUrl string `json:"api_url"`
	Token  string `json:"token"`
	// RequestsPerSecond is a pointer so that an explicit 0 (unlimited) is
	// not replaced by the default when merging.
	RequestsPerSecond *float64 `json:"requests_per_second"`
	TimeoutSeconds    int      `json:"timeout_seconds"`

	Project      string `json:"project"`
	Folder       string `json:"folder"`
	RecordType   string `json:"record_type"`
	ReportFolder string `json:"report_folder"`
	ReportGlob   string `json:"report_glob"`
}

func (c DnanexusConfig) AggregatorOptions() aggregator.Options {
	return aggregator.Options{
		Project:      c.Project,
		Folder:       c.Folder,
		RecordType:   c.RecordType,
		ReportFolder: c.ReportFolder,
		ReportGlob:   c.ReportGlob,
	}
}

func (c DnanexusConfig) ClientOptions() dnanexus.Options {
	token := c.Token
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	var rps float64
	if c.RequestsPerSecond != nil {
		rps = *c.RequestsPerSecond
	}
	return dnanexus.Options{
		BaseUrl:           c.ApiUrl,
		Token:             token,
		RequestsPerSecond: rps,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

type Config struct {
	Dnanexus DnanexusConfig      `json:"dnanexus"`
	Database configlibsql.Struct `json:"database"`
	Email    notify.SmtpConfig   `json:"email"`
	// Schedule is the cron spec of the schedule command.
	Schedule string `json:"schedule"`
	Timezone string `json:"timezone"`
	// HttpDumpDir receives every HTTP exchange when running with --verbose.
	HttpDumpDir string `json:"http_dump_dir"`
}

func defaultConfig() Config {
	opts := aggregator.DefaultOptions()
	rps := 10.0
	return Config{
		Dnanexus: DnanexusConfig{
			ApiUrl:            "https://api.dnanexus.com",
			RequestsPerSecond: &rps,
			TimeoutSeconds:    60,
			Project:           opts.Project,
			Folder:            opts.Folder,
			RecordType:        opts.RecordType,
			ReportFolder:      opts.ReportFolder,
			ReportGlob:        opts.ReportGlob,
		},
		Schedule: "0 6 1 * *",
		Timezone: "America/Los_Angeles",
	}
}

func readConfig(path string) (Config, error) {
	return configutil.ReadWithDefaults(path, defaultConfig())
}
