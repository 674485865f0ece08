// Command pagetrans translates the visible text of HTML pages into another
// language through a LibreTranslate-compatible server or Gemini.
package main

func main() {
	execute()
}
