package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/volatiletech/null/v8"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/teaching-dashboard/internal/entity"
	"github.com/mind-engage/teaching-dashboard/internal/rubric"
)

// EnvPrefix prefixes every environment override, e.g. DASH_HTTP_ADDR.
const EnvPrefix = "DASH"

type Config struct {
	Gradescope bool
	Canvas     bool

	DBDriver string // sqlite|postgres
	DBDSN    string

	HTTPAddr    string
	CORSOrigins []string

	Timezone string
	Location *time.Location

	// SpreadsheetDir holds the per-course auxiliary workbooks.
	SpreadsheetDir string
	CacheSize      int

	Grades  []rubric.Threshold
	Rubrics map[int64]rubric.CourseRubric
}

func (c Config) Sources() entity.Sources {
	return entity.Sources{Gradescope: c.Gradescope, Canvas: c.Canvas}
}

// Rubric returns the rubric of a course, looked up by Canvas course id first
// and Gradescope course id second.
func (c Config) Rubric(course entity.Course) (rubric.CourseRubric, bool) {
	for _, id := range []null.Int64{course.CanvasCourseID, course.GSCourseID} {
		if !id.Valid {
			continue
		}
		if r, ok := c.Rubrics[id.Int64]; ok {
			return r, true
		}
	}
	return rubric.CourseRubric{}, false
}

// Path returns the config file location: DASH_CONFIG, else ./config.yaml.
func Path() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("gradescope.show", true)
	v.SetDefault("canvas.show", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("timezone", "UTC")
	v.SetDefault("spreadsheets", ".")
	v.SetDefault("cache.size", 256)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the YAML document at path, applies a sibling .env file and
// DASH_* overrides, and validates the rubric. A missing file yields the
// defaults with no rubric.
func Load(path string) (Config, error) {
	dotEnv := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(dotEnv); err == nil {
		if err := godotenv.Load(dotEnv); err != nil {
			return Config{}, errors.Wrapf(err, "load %s", dotEnv)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrapf(err, "read %s", path)
	}
	return Parse(data)
}

// Parse builds a Config from document bytes plus environment overrides.
func Parse(data []byte) (Config, error) {
	v := newViper()
	v.SetConfigType("yaml")
	if len(bytes.TrimSpace(data)) > 0 {
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return Config{}, errors.Wrap(err, "parse config")
		}
	}

	cfg := Config{
		Gradescope:     v.GetBool("gradescope.show"),
		Canvas:         v.GetBool("canvas.show"),
		DBDriver:       v.GetString("database.driver"),
		DBDSN:          v.GetString("database.dsn"),
		HTTPAddr:       v.GetString("http.addr"),
		CORSOrigins:    csv(v.GetStringSlice("http.cors_origins")),
		Timezone:       v.GetString("timezone"),
		SpreadsheetDir: v.GetString("spreadsheets"),
		CacheSize:      v.GetInt("cache.size"),
	}

	var fields []FieldError
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		fields = append(fields, FieldError{Field: "timezone", Error: err.Error()})
	}
	cfg.Location = loc
	if cfg.CacheSize < 0 {
		fields = append(fields, FieldError{Field: "cache.size", Error: "cache.size must be 0 or greater"})
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	rubrics, rerrs := parseRubrics(&doc.Rubric)
	grades, gerrs := parseGrades(&doc.Grades)
	fields = append(fields, rerrs...)
	fields = append(fields, gerrs...)
	if len(fields) > 0 {
		return Config{}, NewValidationError(errors.New("invalid configuration"), fields...)
	}
	cfg.Rubrics = rubrics
	cfg.Grades = grades
	return cfg, nil
}

type document struct {
	Rubric yaml.Node `yaml:"rubric"`
	Grades yaml.Node `yaml:"grades"`
}

// rawGroup mirrors one rubric group as written in the document.
type rawGroup struct {
	Substring      string   `yaml:"substring" validate:"notblank"`
	Points         *float64 `yaml:"points" validate:"required,gte=0"`
	Source         string   `yaml:"source" validate:"omitempty,platform"`
	MaxScore       *float64 `yaml:"max_score" validate:"omitempty,gte=0"`
	MaxExtraCredit *float64 `yaml:"max_extra_credit" validate:"omitempty,gte=0"`
}

// parseRubrics walks the rubric mapping in document order. Keys are course
// ids; within a course every key except "spreadsheet" is a group.
func parseRubrics(n *yaml.Node) (map[int64]rubric.CourseRubric, []FieldError) {
	out := map[int64]rubric.CourseRubric{}
	if isEmpty(n) {
		return out, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, []FieldError{{Field: "rubric", Error: "rubric must be a mapping of course id to groups"}}
	}
	var fields []FieldError
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, body := n.Content[i], n.Content[i+1]
		prefix := "rubric." + key.Value
		id, err := strconv.ParseInt(strings.TrimSpace(key.Value), 10, 64)
		if err != nil {
			fields = append(fields, FieldError{Field: prefix, Error: "course id must be an integer"})
			continue
		}
		if body.Kind != yaml.MappingNode {
			fields = append(fields, FieldError{Field: prefix, Error: "course rubric must be a mapping"})
			continue
		}
		cr := rubric.CourseRubric{CourseID: id}
		for j := 0; j+1 < len(body.Content); j += 2 {
			name, gn := body.Content[j].Value, body.Content[j+1]
			gprefix := prefix + "." + name
			if name == "spreadsheet" {
				cr.Spreadsheet = strings.TrimSpace(gn.Value)
				continue
			}
			var raw rawGroup
			if err := gn.Decode(&raw); err != nil {
				fields = append(fields, FieldError{Field: gprefix, Error: err.Error()})
				continue
			}
			if errs := structErrors(gprefix, raw); len(errs) > 0 {
				fields = append(fields, errs...)
				continue
			}
			cr.Groups = append(cr.Groups, rubric.Group{
				Name:           name,
				Substring:      raw.Substring,
				Source:         strings.TrimSpace(raw.Source),
				Points:         *raw.Points,
				MaxScore:       null.Float64FromPtr(raw.MaxScore),
				MaxExtraCredit: null.Float64FromPtr(raw.MaxExtraCredit),
			})
		}
		out[id] = cr
	}
	return out, fields
}

// parseGrades overrides the default thresholds by letter. The result must
// still descend from the best letter to the worst.
func parseGrades(n *yaml.Node) ([]rubric.Threshold, []FieldError) {
	th := rubric.DefaultThresholds()
	if isEmpty(n) {
		return th, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, []FieldError{{Field: "grades", Error: "grades must be a mapping of letter to minimum"}}
	}
	pos := make(map[string]int, len(th))
	for i, t := range th {
		pos[t.Letter] = i
	}
	var fields []FieldError
	for i := 0; i+1 < len(n.Content); i += 2 {
		letter, vn := n.Content[i].Value, n.Content[i+1]
		idx, ok := pos[letter]
		if !ok {
			fields = append(fields, FieldError{Field: "grades." + letter, Error: "unknown letter grade"})
			continue
		}
		var floor float64
		if err := vn.Decode(&floor); err != nil {
			fields = append(fields, FieldError{Field: "grades." + letter, Error: "threshold must be a number"})
			continue
		}
		th[idx].Min = floor
	}
	for i := 1; i < len(th); i++ {
		if th[i].Min > th[i-1].Min {
			fields = append(fields, FieldError{
				Field: "grades." + th[i].Letter,
				Error: "threshold must not exceed the one for " + th[i-1].Letter,
			})
		}
	}
	return th, fields
}

func isEmpty(n *yaml.Node) bool {
	return n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func csv(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
