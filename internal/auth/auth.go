package auth

import "fmt"

type Provider interface {
	Authorize() error
}

var providers = map[string]Provider{
	"sharepoint": &sharepointProvider{},
	"gdrive":     &gdriveProvider{},
	"dropbox":    &dropboxProvider{},
}

func ByName(name string) (Provider, error) {
	p, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	return p, nil
}
