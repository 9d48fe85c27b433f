package gate

import "github.com/gookit/color"

const banner = `
   ___   _ _____ ____
  / _ \ / // _  )  _ \
 / ___// // /_) |  __/
/_/   /_/ \____/_/
`

func printBanner() {
	color.Cyan.Println(banner)
}
