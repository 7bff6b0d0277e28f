package config

const (
	defaultDataDir     = "~/.local/share/stayscope"
	defaultLogDir      = "~/.local/share/stayscope/logs"
	defaultListingsCSV = "~/.local/share/stayscope/datasets/listings.csv"
	defaultCalendarCSV = "~/.local/share/stayscope/datasets/calendar.csv"
	defaultReviewsCSV  = "~/.local/share/stayscope/datasets/reviews.csv"
	defaultAPIBind     = "127.0.0.1:7787"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultClusters    = 3
	defaultHorizon     = 7
	defaultWindow      = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Datasets: Datasets{
			ListingsCSV: defaultListingsCSV,
			CalendarCSV: defaultCalendarCSV,
			ReviewsCSV:  defaultReviewsCSV,
		},
		Models: Models{
			Clusters: defaultClusters,
			Horizon:  defaultHorizon,
			Window:   defaultWindow,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
