// Command manifest-producer reconstructs a function-level call graph
// from a compiled x86-64 ELF executable: it enumerates symbols,
// disassembles each function, resolves direct calls into a graph,
// classifies syscall sites, locates user main, and materializes the
// call tree rooted at it, persisting every artifact as JSON.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/SoftengPoliTo/manifest-producer/internal/callgraph"
	"github.com/SoftengPoliTo/manifest-producer/internal/calltree"
	"github.com/SoftengPoliTo/manifest-producer/internal/config"
	"github.com/SoftengPoliTo/manifest-producer/internal/demangle"
	"github.com/SoftengPoliTo/manifest-producer/internal/elfio"
	"github.com/SoftengPoliTo/manifest-producer/internal/entry"
	"github.com/SoftengPoliTo/manifest-producer/internal/integrity"
	"github.com/SoftengPoliTo/manifest-producer/internal/langdetect"
	"github.com/SoftengPoliTo/manifest-producer/internal/logging"
	"github.com/SoftengPoliTo/manifest-producer/internal/manifesterr"
	"github.com/SoftengPoliTo/manifest-producer/internal/model"
	"github.com/SoftengPoliTo/manifest-producer/internal/report"
	"github.com/SoftengPoliTo/manifest-producer/internal/symbols"
	"github.com/SoftengPoliTo/manifest-producer/internal/syscallclass"
	"github.com/SoftengPoliTo/manifest-producer/internal/syscalltable"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("analysis failed")
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if me, ok := err.(*manifesterr.Error); ok {
		return int(me.Kind) + 1
	}
	return 1
}

func run(cfg config.Config, log zerolog.Logger) error {
	fileData, err := os.ReadFile(cfg.BinaryPath)
	if err != nil {
		return manifesterr.Wrap(manifesterr.KindIO, err, "reading "+cfg.BinaryPath)
	}

	obj, err := elfio.Open(bytes.NewReader(fileData), int64(len(fileData)))
	if err != nil {
		return err
	}
	if err := obj.RequireX8664(); err != nil {
		return err
	}
	if obj.IsStripped() {
		return manifesterr.New(manifesterr.KindMissingDebugInfo, "binary has no static symbol table")
	}

	textSect, err := obj.TextSection()
	if err != nil {
		return err
	}

	producerTag := cfg.Lang
	if producerTag == "" {
		dwarfData, _ := obj.File.DWARF()
		producerTag = langdetect.Detect(dwarfData)
	}

	functions, err := symbols.Enumerate(obj, producerTag, symbols.KeepLast)
	if err != nil {
		return err
	}
	log.Info().Int("functions", len(functions)).Str("language", producerTag).Msg("enumerated symbols")

	names := callgraph.NewNameIndex(functions)
	for _, f := range functions {
		if err := callgraph.Analyze(f, fileData, textSect, obj, producerTag, names, demangle.Demangle); err != nil {
			if cfg.StrictDecode {
				return err
			}
			log.Warn().Err(err).Str("function", f.Name).Msg("decode error, continuing")
		}
	}
	callgraph.CountInvocations(functions)

	syscallTable, err := syscalltable.Load(cfg.SyscallTable)
	if err != nil {
		return err
	}
	for _, f := range functions {
		if !f.HasSyscall || f.Disassembly == nil {
			continue
		}
		numbers := syscallclass.Classify(*f.Disassembly)
		f.SyscallInfos = syscallTable.Lookup(numbers)
	}

	writer, err := report.NewWriter(cfg.OutDir)
	if err != nil {
		return err
	}

	fileType, err := obj.FileTypeName()
	if err != nil {
		return err
	}
	archName, err := obj.ArchName()
	if err != nil {
		return err
	}

	metadata := model.BinaryMetadata{
		FileName:      cfg.BinaryPath,
		FileType:      fileType,
		FileSize:      uint64(len(fileData)),
		Arch:          archName,
		PIE:           obj.IsPIE(),
		Stripped:      obj.IsStripped(),
		StaticLinking: staticLinkingLabel(obj.IsStaticallyLinked()),
		Language:      producerTag,
		EntryPoint:    obj.File.Entry,
	}
	if err := writer.BasicInfo(metadata); err != nil {
		return err
	}
	if err := writer.FunctionsList(functions); err != nil {
		return err
	}

	mainFn, err := entry.FindMain(functions)
	if err != nil {
		log.Warn().Err(err).Msg("could not locate user main; skipping call-tree materialization")
	} else {
		tree := calltree.Build(mainFn.Name, functions, cfg.Depth)
		if err := writer.Tree(mainFn.Name, tree); err != nil {
			return err
		}
	}

	if cfg.CheckIntegrity {
		integrityReport := integrity.Validate(obj, cfg.BinaryPath, int64(len(fileData)))
		if err := writer.IntegrityReport(integrityReport); err != nil {
			return err
		}
	}

	log.Info().Str("out", cfg.OutDir).Msg("analysis complete")
	return nil
}

func staticLinkingLabel(static bool) string {
	if static {
		return "Statically linked"
	}
	return "Dynamically linked"
}
