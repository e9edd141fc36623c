package main

import "github.com/forPelevin/shortsfinder/internal/cli"

func main() { cli.Main() }
