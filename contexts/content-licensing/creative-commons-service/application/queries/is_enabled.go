package queries

import "ccdepot/contexts/content-licensing/creative-commons-service/ports"

type IsEnabledUseCase struct {
	Settings ports.Settings
}

func (u IsEnabledUseCase) Execute() bool {
	return u.Settings.Enabled
}
