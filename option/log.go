package option

type LogOptions struct {
	Disabled         bool   `config:"disabled"`
	File             string `config:"file"`
	Level            string `config:"level"`
	Debug            bool   `config:"debug"`
	Color            bool   `config:"color"`
	DisableTimestamp bool   `config:"disable-timestamp"`
}
