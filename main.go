// main.go - Main entry point for the Cosmac Engine CHIP-8 virtual machine

/*
 ██████╗ ██████╗ ███████╗███╗   ███╗ █████╗  ██████╗    ███████╗███╗   ██╗ ██████╗ ██╗███╗   ██╗███████╗
██╔════╝██╔═══██╗██╔════╝████╗ ████║██╔══██╗██╔════╝    ██╔════╝████╗  ██║██╔════╝ ██║████╗  ██║██╔════╝
██║     ██║   ██║███████╗██╔████╔██║███████║██║         █████╗  ██╔██╗ ██║██║  ███╗██║██╔██╗ ██║█████╗
██║     ██║   ██║╚════██║██║╚██╔╝██║██╔══██║██║         ██╔══╝  ██║╚██╗██║██║   ██║██║██║╚██╗██║██╔══╝
╚██████╗╚██████╔╝███████║██║ ╚═╝ ██║██║  ██║╚██████╗    ███████╗██║ ╚████║╚██████╔╝██║██║ ╚████║███████╗
 ╚═════╝ ╚═════╝ ╚══════╝╚═╝     ╚═╝╚═╝  ╚═╝ ╚═════╝    ╚══════╝╚═╝  ╚═══╝ ╚═════╝ ╚═╝╚═╝  ╚═══╝╚══════╝

(c) 2024 - 2026 Zayn Otley
https://github.com/intuitionamiga/CosmacEngine
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/retroenv/retrogolib/log"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m ██████╗ ██████╗ ███████╗███╗   ███╗ █████╗  ██████╗    ███████╗███╗   ██╗ ██████╗ ██╗███╗   ██╗███████╗\033[0m\n\033[38;2;255;65;147m██╔════╝██╔═══██╗██╔════╝████╗ ████║██╔══██╗██╔════╝    ██╔════╝████╗  ██║██╔════╝ ██║████╗  ██║██╔════╝\033[0m\n\033[38;2;255;110;147m██║     ██║   ██║███████╗██╔████╔██║███████║██║         █████╗  ██╔██╗ ██║██║  ███╗██║██╔██╗ ██║█████╗\033[0m\n\033[38;2;255;155;147m██║     ██║   ██║╚════██║██║╚██╔╝██║██╔══██║██║         ██╔══╝  ██║╚██╗██║██║   ██║██║██║╚██╗██║██╔══╝\033[0m\n\033[38;2;255;200;147m╚██████╗╚██████╔╝███████║██║ ╚═╝ ██║██║  ██║╚██████╗    ███████╗██║ ╚████║╚██████╔╝██║██║ ╚████║███████╗\033[0m\n\033[38;2;255;245;147m ╚═════╝ ╚═════╝ ╚══════╝╚═╝     ╚═╝╚═╝  ╚═╝ ╚═════╝    ╚══════╝╚═╝  ╚═══╝ ╚═════╝ ╚═╝╚═╝  ╚═══╝╚══════╝\033[0m")
	fmt.Println("\nA CHIP-8 virtual machine in the spirit of the RCA COSMAC VIP.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/intuitionamiga/CosmacEngine")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
}

func createLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

func parseBackend(name string) (int, error) {
	switch name {
	case "ebiten":
		return IO_BACKEND_EBITEN, nil
	case "terminal":
		return IO_BACKEND_TERMINAL, nil
	case "sdl":
		return IO_BACKEND_SDL, nil
	case "headless":
		return IO_BACKEND_HEADLESS, nil
	}
	return 0, fmt.Errorf("unknown backend %q", name)
}

func parseAudioBackend(name string) (int, error) {
	switch name {
	case "oto":
		return AUDIO_BACKEND_OTO, nil
	case "alsa":
		return AUDIO_BACKEND_ALSA, nil
	}
	return 0, fmt.Errorf("unknown audio backend %q", name)
}

func main() {
	boilerPlate()

	var (
		backendName string
		audioName   string
		scale       int
		paceDelay   time.Duration
		debug       bool
		quiet       bool
		mute        bool
		scriptPath  string
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&backendName, "backend", "ebiten", "display frontend: ebiten, terminal, sdl or headless")
	flagSet.StringVar(&audioName, "audio", "oto", "audio backend: oto or alsa (requires building with -tags alsa)")
	flagSet.IntVar(&scale, "scale", DEFAULT_DISPLAY_SCALE, "window pixels per CHIP-8 pixel")
	flagSet.DurationVar(&paceDelay, "delay", DEFAULT_PACE_DELAY, "pacing delay per instruction, 0 runs unpaced")
	flagSet.BoolVar(&debug, "debug", false, "debug logging with a per-instruction trace")
	flagSet.BoolVar(&quiet, "quiet", false, "log errors only")
	flagSet.BoolVar(&mute, "mute", false, "disable the beeper")
	flagSet.StringVar(&scriptPath, "script", "", "run a Lua script against an offscreen machine")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./cosmac_engine [-backend ebiten|terminal|sdl|headless] [-audio oto|alsa] [-scale N] [-delay 2ms] [-mute] [-debug|-quiet] [-script file.lua] rom.ch8")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	filename := flagSet.Arg(0)
	if filename == "" {
		flagSet.Usage()
		os.Exit(1)
	}

	logger := createLogger(debug, quiet)

	backend, err := parseBackend(backendName)
	if err != nil {
		logger.Fatal("invalid backend", log.Err(err))
	}
	// Scripts drive the machine themselves and never open a window.
	if scriptPath != "" {
		backend = IO_BACKEND_HEADLESS
	}

	audioBackend, err := parseAudioBackend(audioName)
	if err != nil {
		logger.Fatal("invalid audio backend", log.Err(err))
	}

	var beeper Beeper
	if mute || scriptPath != "" {
		beeper = NewNullBeeper()
	} else {
		beeper, err = NewBeeper(audioBackend)
		if err != nil {
			logger.Error("audio unavailable, continuing muted", log.Err(err))
			beeper = NewNullBeeper()
		}
	}

	machineIO, err := NewMachineIO(backend, IOConfig{
		Title:  "Cosmac Engine",
		Scale:  scale,
		Beeper: beeper,
	})
	if err != nil {
		logger.Fatal("frontend creation failed", log.Err(err))
	}

	runner := NewChip8Runner(machineIO, logger, Chip8Config{
		PaceDelay: paceDelay,
		Trace:     debug,
	})

	if err := runner.LoadProgram(filename); err != nil {
		logger.Fatal("program load failed", log.Err(err))
	}

	if controllable, ok := machineIO.(ControlCapable); ok {
		controllable.SetControlHandler(runner.HandleControl)
	}

	if err := machineIO.Start(); err != nil {
		logger.Fatal("frontend start failed", log.Err(err))
	}
	if err := beeper.Start(); err != nil {
		logger.Error("beeper start failed, continuing muted", log.Err(err))
	}

	if scriptPath != "" {
		host := NewScriptHost(runner, machineIO)
		err := host.RunFile(scriptPath)
		shutdown(machineIO, beeper)
		if err != nil {
			logger.Fatal("script failed", log.Err(err))
		}
		return
	}

	go runner.Execute()
	<-runner.Done()

	shutdown(machineIO, beeper)

	if runner.HaltErr() != nil {
		os.Exit(1)
	}
}

func shutdown(machineIO MachineIO, beeper Beeper) {
	_ = beeper.Stop()
	_ = beeper.Close()
	_ = machineIO.Stop()
}
