// Command mrestimate trains and compares regression models that estimate
// stellar mass or radius from observed stellar parameters.
package main

func main() {
	Execute()
}
