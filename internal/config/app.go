package config

type AppConfig struct {
	Server    ServerConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	schedCfg, err := LoadScheduler()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server:    serverCfg,
		Scheduler: schedCfg,
		Log:       logCfg,
	}, nil
}
