package main

import (
	"flag"
)

type AppFlags struct {
	GlobalConfigFile string
	Mode             string
	OutputFile       string
	Range            string
	FromDay          string
	ToDay            string
}

func ParseFlags() AppFlags {
	globalConfigFile := flag.String("globalconfig", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := flag.String("gc", "", "Alias for -globalconfig")

	modeFlag := flag.String("mode", "", "Mode to run: onetime, automated, report or export (overrides config file if set)")
	modeFlagAlias := flag.String("m", "", "Alias for -mode")

	outputFile := flag.String("output", "", "Output file for export mode")
	outputFileAlias := flag.String("o", "", "Alias for -output")

	rangeFlag := flag.String("range", "all", "History window for report mode: all, 2w, month, quarter, 6m, year")
	fromDay := flag.String("from", "", "Report mode: compare from the latest collection of this day (YYYY-MM-DD)")
	toDay := flag.String("to", "", "Report mode: compare to the latest collection of this day (YYYY-MM-DD)")

	flag.Parse()

	flags := AppFlags{Range: *rangeFlag, FromDay: *fromDay, ToDay: *toDay}

	if *globalConfigFile != "" {
		flags.GlobalConfigFile = *globalConfigFile
	} else if *globalConfigFileAlias != "" {
		flags.GlobalConfigFile = *globalConfigFileAlias
	}

	if *modeFlag != "" {
		flags.Mode = *modeFlag
	} else if *modeFlagAlias != "" {
		flags.Mode = *modeFlagAlias
	}

	if *outputFile != "" {
		flags.OutputFile = *outputFile
	} else if *outputFileAlias != "" {
		flags.OutputFile = *outputFileAlias
	}

	return flags
}
