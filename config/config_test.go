package config

import (
	"testing"

	"github.com/robertkrimen/otto"
	"github.com/stretchr/testify/assert"

	"github.com/ferretstack/ferret/task"
)

func Test_applyFileTargets(t *testing.T) {
	tests := []struct {
		name        string
		script      string
		wantTargets task.Targets
		wantErr     bool
	}{
		{"one", `T({
			name: "acme",
			url:  "https://boards.greenhouse.io/acme",
			keywords: ["golang", "devops"]
		})`, task.Targets{
			{
				Name:       "acme",
				CareersURL: "https://boards.greenhouse.io/acme",
				Keywords:   []string{"golang", "devops"},
				Env:        map[string]string{},
			},
		}, false},
		{"variable", `
		var kw = ["golang"];

		T({name: "acme", url: "https://careers.acme.example/1", keywords: kw});
		T({name: "initech", url: "https://careers.acme.example/2", keywords: kw});
		T({name: "globex", url: "https://careers.acme.example/3", keywords: kw});

		console.log("done!");
		`, task.Targets{
			{Name: "acme", CareersURL: "https://careers.acme.example/1", Keywords: []string{"golang"}, Env: map[string]string{}},
			{Name: "initech", CareersURL: "https://careers.acme.example/2", Keywords: []string{"golang"}, Env: map[string]string{}},
			{Name: "globex", CareersURL: "https://careers.acme.example/3", Keywords: []string{"golang"}, Env: map[string]string{}},
		}, false},
		{"envmap", `
		E("REGION", "us-east");

		T({name: "acme", url: "https://careers.acme.example", keywords: ["sre"], env: {ADP_CID: "abc123"}});
		`, task.Targets{
			{
				Name:       "acme",
				CareersURL: "https://careers.acme.example",
				Keywords:   []string{"sre"},
				Env:        map[string]string{"REGION": "us-east", "ADP_CID": "abc123"},
			},
		}, false},
		{"strategy", `
		T({name: "acme", url: "https://careers.acme.example", keywords: ["sre"], strategy: "adp"});
		`, task.Targets{
			{
				Name:       "acme",
				CareersURL: "https://careers.acme.example",
				Keywords:   []string{"sre"},
				Strategy:   "adp",
				Env:        map[string]string{},
			},
		}, false},
		{"badtype", `T({name: "acme", url: "https://careers.acme.example", keywords: 1.23})`, task.Targets{{}}, true},
		{"missingkey", `T({name: "acme", url: "https://careers.acme.example"})`, task.Targets{{}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := configBuilder{
				vm:      otto.New(),
				state:   new(State),
				scripts: []string{tt.script},
			}

			err := cb.construct("testhost")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantTargets, cb.state.Targets)
		})
	}
}

func Test_hostnameVariable(t *testing.T) {
	cb := configBuilder{
		vm:    otto.New(),
		state: new(State),
		scripts: []string{`
		if (HOSTNAME === "scraper01") {
			T({name: "acme", url: "https://careers.acme.example", keywords: ["go"]});
		}
		`},
	}

	assert.NoError(t, cb.construct("scraper01"))
	assert.Len(t, cb.state.Targets, 1)
}
