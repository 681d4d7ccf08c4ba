package cmd

import (
	"fmt"

	goversion "github.com/caarlos0/go-version"

	"github.com/Alia5/dynbind/internal/codegen/common"
)

const (
	application = "dynbind"
	description = "Generates C++ mappers between annotated structs and string-keyed script mappings"
	website     = "https://github.com/Alia5/dynbind"
)

type Version struct{}

// Run is called by Kong when the version command is executed.
func (v *Version) Run() error {
	info, err := buildVersion()
	if err != nil {
		return err
	}
	fmt.Println(info.String())
	return nil
}

func buildVersion() (goversion.Info, error) {
	version, err := common.GetVersion()
	if err != nil {
		return goversion.Info{}, err
	}
	return goversion.GetVersionInfo(
		goversion.WithAppDetails(application, description, website),
		func(i *goversion.Info) {
			i.GitVersion = version
		},
	), nil
}
