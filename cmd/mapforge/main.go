/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mapforge/internal/config"
	"mapforge/internal/crash"
	applog "mapforge/internal/log"
	"mapforge/internal/settings"
	"mapforge/internal/toolstate"
	"mapforge/internal/ui"
	"mapforge/internal/version"
)

func usage() {
	fmt.Println("MapForge — tool options add-on")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mapforge version|-v|--version              Show version")
	fmt.Println("  mapforge config                             Print the resolved configuration")
	fmt.Println("  mapforge settings get <ns> <key>            Read one settings value")
	fmt.Println("  mapforge settings set <ns> <key> <value>    Write one settings value")
	fmt.Println("  mapforge validate <file>                    Validate a tool options document (JSON)")
	fmt.Println("  mapforge ui [<settingsPath>]                Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	cfg, _, _ := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")

	var st *settings.Store
	defer func() { crash.Recover(st) }()
	defer func() {
		if st != nil {
			_ = st.Close()
		}
	}()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("MapForge — tool options add-on")
			fmt.Println(version.String())
			return
		case "config":
			path, err := config.ConfigPath()
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Config file:", path)
			fmt.Println("Theme:", cfg.General.Theme)
			fmt.Println("Telemetry opt-in:", cfg.General.TelemetryOptIn)
			fmt.Println("Library URL:", cfg.Library.BaseURL)
			return
		case "settings":
			if len(args) < 5 || (args[2] == "set" && len(args) < 6) {
				fmt.Println("settings requires get <ns> <key> or set <ns> <key> <value>")
				usage()
				os.Exit(2)
			}
			st = openSettings(l)
			switch args[2] {
			case "get":
				v, ok, err := st.Get(args[3], args[4])
				if err != nil {
					l.Error("settings get failed", slog.Any("err", err))
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				if !ok {
					fmt.Printf("%s.%s is not set\n", args[3], args[4])
					return
				}
				fmt.Println(v)
			case "set":
				if err := st.Set(args[3], args[4], args[5]); err != nil {
					l.Error("settings set failed", slog.Any("err", err))
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				fmt.Printf("Set %s.%s\n", args[3], args[4])
			default:
				usage()
				os.Exit(2)
			}
			return
		case "validate":
			if len(args) < 3 {
				fmt.Println("validate requires <file>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			raw, err := os.ReadFile(abs)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			doc, err := toolstate.Parse(raw)
			if err != nil {
				l.Error("document invalid", slog.String("file", abs), slog.Any("err", err))
				fmt.Println("Invalid:", err)
				os.Exit(1)
			}
			present := 0
			for _, avail := range toolstate.ShapeOf(doc) {
				if avail {
					present++
				}
			}
			fmt.Printf("Valid tool options document (%d control groups)\n", present)
			return
		case "ui":
			var path string
			if len(args) >= 3 {
				path = args[2]
			}
			if err := ui.Run(path); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func openSettings(l *slog.Logger) *settings.Store {
	path, err := settings.DefaultPath()
	if err != nil {
		l.Error("resolve settings path", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	st, err := settings.Open(path)
	if err != nil {
		l.Error("open settings", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	return st
}
