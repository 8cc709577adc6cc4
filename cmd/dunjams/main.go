package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register midi driver
)

type command interface {
	Name() string
	Help() string
	Run() error
	Register(*flag.FlagSet)
}

type cli struct {
	args []string
}

func (c *cli) run() int {
	cmdName, args := parseArgs(c.args)
	if cmdName == "" {
		printUsage()
		return errorExitCode
	}

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}
		flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		cmd.Register(flags)
		if err := flags.Parse(args); err != nil {
			return errorExitCode
		}
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Command failed: %v\n", err)
			return errorExitCode
		}
		return successExitCode
	}
	printUsage()
	return errorExitCode
}

var (
	successExitCode = 0
	errorExitCode   = 1
	commands        = []command{
		&devicesCommand{},
		&presetsCommand{},
		&playCommand{},
		&renderCommand{},
	}
)

func main() {
	c := cli{
		args: os.Args,
	}
	os.Exit(c.run())
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func printUsage() {
	fmt.Println("Dunjams is a rhythm game audio engine")
	fmt.Println()
	fmt.Println("Usage: dunjams <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, cmd := range commands {
		fmt.Printf("\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}

// intList is a flag of comma separated integers.
type intList []int

func (l *intList) String() string {
	if l == nil {
		return ""
	}
	values := make([]string, len(*l))
	for i, v := range *l {
		values[i] = strconv.Itoa(v)
	}
	return strings.Join(values, ",")
}

func (l *intList) Set(value string) error {
	var values []int
	for _, s := range strings.Split(value, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", s, err)
		}
		values = append(values, v)
	}
	*l = values
	return nil
}
