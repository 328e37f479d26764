package main

import "github.com/yorozuya-cybersecurity/hipaa-audit/pkg/cli"

func main() {
	cli.Execute()
}
