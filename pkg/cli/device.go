package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/devicelab-dev/adbridge/pkg/core"
	"github.com/devicelab-dev/adbridge/pkg/device"
	"github.com/devicelab-dev/adbridge/pkg/inspector"
	"github.com/devicelab-dev/adbridge/pkg/uitree"
	"github.com/urfave/cli/v2"
)

var devicesCommand = &cli.Command{
	Name:  "devices",
	Usage: "List devices known to adb",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "long",
			Usage: "Show model, brand and SDK of online devices",
		},
	},
	Action: runDevices,
}

var hierarchyCommand = &cli.Command{
	Name:  "hierarchy",
	Usage: "Dump the window hierarchy of the connected device",
	Description: `Print the uiautomator window hierarchy XML of the device.

Examples:
  adbridge hierarchy
  adbridge hierarchy --output window.xml
  adbridge --device emulator-5554 hierarchy`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the snapshot to a file instead of stdout",
		},
	},
	Action: runHierarchy,
}

var findNodeCommand = &cli.Command{
	Name:  "find-node",
	Usage: "Locate an element by coordinate or XPath",
	Description: `Locate the innermost element containing a point, or the first element
an XPath expression selects, and print its attributes as JSON.

Examples:
  adbridge find-node --x 540 --y 1200
  adbridge find-node --xpath /hierarchy/node/node[2]
  adbridge find-node --xpath "//node[@clickable='true']" --file window.xml`,
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "x", Usage: "X coordinate"},
		&cli.IntFlag{Name: "y", Usage: "Y coordinate"},
		&cli.StringFlag{Name: "xpath", Usage: "XPath expression"},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Search a saved snapshot instead of the live device",
		},
	},
	Action: runFindNode,
}

func runDevices(c *cli.Context) error {
	bridge, err := newBridge(configFrom(c))
	if err != nil {
		return err
	}
	entries, err := bridge.ListDevices(c.Context)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.App.Writer, "No devices attached")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	defer tw.Flush()
	for _, e := range entries {
		if !c.Bool("long") || e.State != "device" {
			fmt.Fprintf(tw, "%s\t%s\n", e.Serial, e.State)
			continue
		}
		info, _ := bridge.Device(e.Serial).Info(c.Context)
		kind := "device"
		if info.IsEmulator {
			kind = "emulator"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s %s\tsdk %s\t%s\n", e.Serial, e.State, info.Brand, info.Model, info.SDK, kind)
	}
	return nil
}

func runHierarchy(c *cli.Context) error {
	dev, err := openDevice(c)
	if err != nil {
		return err
	}
	snapshot, err := dev.DumpHierarchy(c.Context)
	if err != nil {
		return err
	}

	if out := c.String("output"); out != "" {
		if err := os.WriteFile(out, []byte(snapshot), 0644); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Snapshot written to %s\n", out)
		return nil
	}
	fmt.Fprintln(c.App.Writer, snapshot)
	return nil
}

func runFindNode(c *cli.Context) error {
	expr := c.String("xpath")
	byPoint := c.IsSet("x") || c.IsSet("y")
	switch {
	case expr != "" && byPoint:
		return core.ErrInvalidArgument.WithMessage("use either --x/--y or --xpath, not both")
	case expr == "" && !(c.IsSet("x") && c.IsSet("y")):
		return core.ErrMissingArgument.WithMessage("--x and --y, or --xpath, are required")
	}
	x, y := c.Int("x"), c.Int("y")

	var (
		d   uitree.ElementDescriptor
		err error
	)
	if file := c.String("file"); file != "" {
		data, rerr := os.ReadFile(file) //#nosec G304 -- user-provided snapshot
		if rerr != nil {
			return rerr
		}
		if expr != "" {
			d, err = uitree.FindByPath(string(data), expr)
		} else {
			d, err = uitree.FindAtPoint(string(data), x, y)
		}
	} else {
		dev, derr := openDevice(c)
		if derr != nil {
			return derr
		}
		insp := inspector.New()
		if expr != "" {
			d, err = insp.FindByPath(c.Context, dev, expr)
		} else {
			d, err = insp.FindAtPoint(c.Context, dev, x, y)
		}
	}
	if err != nil {
		return err
	}
	if d == nil {
		if expr != "" {
			return fmt.Errorf("no element matches %s", expr)
		}
		return fmt.Errorf("no element at (%d, %d)", x, y)
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

func openDevice(c *cli.Context) (*device.AndroidDevice, error) {
	cfg := configFrom(c)
	bridge, err := newBridge(cfg)
	if err != nil {
		return nil, err
	}
	return bridge.Open(c.Context, cfg.ADB.DefaultDevice)
}
