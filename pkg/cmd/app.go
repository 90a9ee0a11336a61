package cmd

import (
	"github.com/urfave/cli/v2"
)

func NewResourceFilterApp() *cli.App {
	return &cli.App{
		Name:    "resourcefilter",
		Usage:   "select structured records using gcloud style filter expressions",
		Version: Version,
		Commands: []*cli.Command{
			{
				Name:      "eval",
				Usage:     "print the JSON or YAML records read from files or stdin which match a filter",
				ArgsUsage: "[PATH...]",
				Action:    Eval,
				Flags: []cli.Flag{
					&flagFilter,
					&cli.StringSliceFlag{
						Name:    "include",
						Usage:   "file name patterns to read when walking directories",
						Aliases: []string{"i"},
						EnvVars: []string{"RESOURCEFILTER_INCLUDE"},
					},
					&cli.BoolFlag{
						Name:  "value",
						Usage: "print the value of the filter for every record rather than the matching records",
						Value: false,
					},
				},
			},
			{
				Name:   "kube",
				Usage:  "print the names of the kubernetes objects which match a filter",
				Action: Kube,
				Flags: []cli.Flag{
					&flagFilter,
					&cli.StringFlag{
						Name:    "resource",
						Usage:   "the resource to list, optionally qualified as <resource>.<version>.<group>",
						Value:   "pods",
						Aliases: []string{"r"},
					},
					&cli.StringFlag{
						Name:  "group",
						Usage: "the api group of the resource",
						Value: "",
					},
					&cli.StringFlag{
						Name:  "version",
						Usage: "the api version of the resource",
						Value: "v1",
					},
					&cli.StringFlag{
						Name:    "namespace",
						Usage:   "the namespace to list objects from, all namespaces if empty",
						Aliases: []string{"n"},
					},
					&cli.StringFlag{
						Name:    "selector",
						Usage:   "a label selector to narrow the listed objects",
						Aliases: []string{"l"},
					},
					&cli.BoolFlag{
						Name:    "watch",
						Usage:   "keep watching the resource and print objects which match as they change",
						Value:   false,
						Aliases: []string{"w"},
					},
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "specify how many workers should evaluate changed objects concurrently when watching",
						Value:   5,
						EnvVars: []string{"RESOURCEFILTER_N_WORKERS"},
					},
					&cli.DurationFlag{
						Name:  "resync",
						Usage: "how often every watched object is evaluated again, never if 0",
						Value: 0,
					},
					&cli.StringFlag{
						Name:    "kubeconfig",
						Usage:   "path to the kubeconfig file to use when configuring the k8s client",
						Aliases: []string{"k"},
						EnvVars: []string{"KUBECONFIG"},
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "run the filter http service",
				Action: Serve,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "address",
						Usage:   "the address the service listens on",
						Value:   ":8080",
						Aliases: []string{"a"},
						EnvVars: []string{"RESOURCEFILTER_ADDRESS"},
					},
				},
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    FlagNameVerbose,
				Usage:   "run resourcefilter verbosely",
				Value:   false,
				Aliases: []string{"V"},
				EnvVars: []string{"RESOURCEFILTER_VERBOSE"},
			},
			&cli.PathFlag{
				Name:    FlagNameConfig,
				Usage:   "path to the config file, resourcefilter.yaml in the user config directory otherwise",
				EnvVars: []string{"RESOURCEFILTER_CONFIG"},
			},
		},
		Authors: []*cli.Author{
			{
				Name:  "Josh Meranda",
				Email: "joshmeranda@gmail.com",
			},
		},
		UseShortOptionHandling: true,
	}
}
