package registry

import (
	_ "embed"
	"os"
	"regexp"
	"strings"

	"github.com/xh3b4sd/tracer"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defyam []byte

const (
	BinaryClassification = "binary_classification"
	Regression           = "regression"
)

var (
	metrics = map[string]bool{
		"accuracy":          true,
		"average_precision": true,
		"f1":                true,
		"mae":               true,
		"r2":                true,
		"rmse":              true,
		"roc_auc":           true,
	}
	types = map[string]bool{
		BinaryClassification: true,
		Regression:           true,
	}
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dataset describes a relational benchmark dataset, the tables it consists of
// and the tasks defined on top of it.
type Dataset struct {
	Name string `yaml:"name"`
	// Database is the file path of the analytical database this dataset is
	// materialized into.
	Database string   `yaml:"database"`
	Tables   []string `yaml:"tables"`
	Tasks    []string `yaml:"tasks"`
}

// Task carries the training and evaluation parameters of a single
// prediction task.
type Task struct {
	Dataset string `yaml:"dataset"`
	Name    string `yaml:"name"`
	// Dir is the directory holding the feature template feats.sql and the
	// trained model artefacts of this task.
	Dir    string `yaml:"dir"`
	Target string `yaml:"target"`
	// Prefix is the table name prefix of the generated feature tables, e.g.
	// engage for engage_train_feats.
	Prefix      string   `yaml:"prefix"`
	Identifiers []string `yaml:"identifiers"`
	Metric      string   `yaml:"metric"`
	Type        string   `yaml:"type"`
}

// Labels returns the label table name of the given split, e.g.
// user_engagement_val.
func (t Task) Labels(spl string) string {
	return Labels(t.Name, spl)
}

// Labels returns the label table name of the task tas and the split spl.
func Labels(tas string, spl string) string {
	return strings.ReplaceAll(tas, "-", "_") + "_" + spl
}

// Features returns the feature table name of the given split, e.g.
// engage_val_feats.
func (t Task) Features(spl string) string {
	return t.Prefix + "_" + spl + "_feats"
}

// Template returns the path of the feature SQL template of this task.
func (t Task) Template() string {
	return strings.TrimSuffix(t.Dir, "/") + "/feats.sql"
}

type document struct {
	Datasets []Dataset `yaml:"datasets"`
	Tasks    []Task    `yaml:"tasks"`
}

// Registry is the immutable dataset and task configuration. It is loaded once
// at startup and passed to everything that needs it. All accessors return
// copies.
type Registry struct {
	dat map[string]Dataset
	tas map[string]Task
	ord []string
}

// Default returns the registry embedded into the binary.
func Default() (*Registry, error) {
	r, err := Parse(defyam)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	return r, nil
}

// Load reads a registry from the YAML file at pat.
func Load(pat string) (*Registry, error) {
	byt, err := os.ReadFile(pat)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	r, err := Parse(byt)
	if err != nil {
		return nil, tracer.Mask(err)
	}

	return r, nil
}

func Parse(byt []byte) (*Registry, error) {
	var doc document
	{
		err := yaml.Unmarshal(byt, &doc)
		if err != nil {
			return nil, tracer.Maskf(invalidRegistryError, "%s", err.Error())
		}
	}

	r := &Registry{
		dat: map[string]Dataset{},
		tas: map[string]Task{},
	}

	for _, d := range doc.Datasets {
		err := verifyDataset(d)
		if err != nil {
			return nil, tracer.Mask(err)
		}

		_, ok := r.dat[d.Name]
		if ok {
			return nil, tracer.Maskf(invalidRegistryError, "dataset %s defined twice", d.Name)
		}

		r.dat[d.Name] = d
		r.ord = append(r.ord, d.Name)
	}

	for _, t := range doc.Tasks {
		d, ok := r.dat[t.Dataset]
		if !ok {
			return nil, tracer.Maskf(invalidRegistryError, "task %s references unknown dataset %s", t.Name, t.Dataset)
		}

		if !contains(d.Tasks, t.Name) {
			return nil, tracer.Maskf(invalidRegistryError, "task %s is not listed in dataset %s", t.Name, t.Dataset)
		}

		err := verifyTask(t)
		if err != nil {
			return nil, tracer.Mask(err)
		}

		k := key(t.Dataset, t.Name)

		_, ok = r.tas[k]
		if ok {
			return nil, tracer.Maskf(invalidRegistryError, "task %s defined twice", k)
		}

		r.tas[k] = t
	}

	return r, nil
}

func (r *Registry) Dataset(nam string) (Dataset, error) {
	d, ok := r.dat[nam]
	if !ok {
		return Dataset{}, tracer.Maskf(notFoundError, "dataset %s", nam)
	}

	d.Tables = clone(d.Tables)
	d.Tasks = clone(d.Tasks)

	return d, nil
}

// Datasets returns all dataset names in definition order.
func (r *Registry) Datasets() []string {
	return clone(r.ord)
}

// Task returns the parameters of the task tas defined on dataset dat. Tasks
// that are listed in a dataset but carry no parameters cannot be trained and
// are reported as not found.
func (r *Registry) Task(dat string, tas string) (Task, error) {
	t, ok := r.tas[key(dat, tas)]
	if !ok {
		return Task{}, tracer.Maskf(notFoundError, "task %s", key(dat, tas))
	}

	t.Identifiers = clone(t.Identifiers)

	return t, nil
}

// Tasks returns the names of all tasks of the dataset dat which carry
// training parameters, in the order the dataset lists them.
func (r *Registry) Tasks(dat string) []string {
	var out []string

	for _, t := range r.dat[dat].Tasks {
		_, ok := r.tas[key(dat, t)]
		if ok {
			out = append(out, t)
		}
	}

	return out
}

// Identifier reports whether s can be used verbatim as a table or column name.
func Identifier(s string) bool {
	return identifier.MatchString(s)
}

func verifyDataset(d Dataset) error {
	if d.Name == "" {
		return tracer.Maskf(invalidRegistryError, "dataset name must not be empty")
	}

	if len(d.Tables) == 0 {
		return tracer.Maskf(invalidRegistryError, "dataset %s must list tables", d.Name)
	}

	for _, t := range d.Tables {
		if !Identifier(t) {
			return tracer.Maskf(invalidRegistryError, "dataset %s lists invalid table %q", d.Name, t)
		}
	}

	for _, t := range d.Tasks {
		if !Identifier(strings.ReplaceAll(t, "-", "_")) {
			return tracer.Maskf(invalidRegistryError, "dataset %s lists invalid task %q", d.Name, t)
		}
	}

	return nil
}

func verifyTask(t Task) error {
	if !Identifier(t.Target) {
		return tracer.Maskf(invalidRegistryError, "task %s has invalid target %q", t.Name, t.Target)
	}

	if !Identifier(t.Prefix) {
		return tracer.Maskf(invalidRegistryError, "task %s has invalid prefix %q", t.Name, t.Prefix)
	}

	if len(t.Identifiers) == 0 {
		return tracer.Maskf(invalidRegistryError, "task %s must define identifiers", t.Name)
	}

	for _, i := range t.Identifiers {
		if !Identifier(i) {
			return tracer.Maskf(invalidRegistryError, "task %s has invalid identifier %q", t.Name, i)
		}
	}

	if !metrics[t.Metric] {
		return tracer.Maskf(invalidRegistryError, "task %s has unknown metric %q", t.Name, t.Metric)
	}

	if !types[t.Type] {
		return tracer.Maskf(invalidRegistryError, "task %s has unknown type %q", t.Name, t.Type)
	}

	if t.Dir == "" {
		return tracer.Maskf(invalidRegistryError, "task %s must define dir", t.Name)
	}

	return nil
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}

	return false
}

func key(dat string, tas string) string {
	return dat + "/" + tas
}
