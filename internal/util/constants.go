package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// 未加载学习计划时默认练习使用的主题与材料
const (
	DefaultTopic = "Basic Python Output and Variables"

	DefaultDocumentation = "Python basics include variables for storing data (e.g., name = \"Alice\"), " +
		"the print() function for displaying output (e.g., print(\"Hello\")), and f-strings for formatted " +
		"output (e.g., print(f\"Hello, {name}\")). Arithmetic operations like addition (+), subtraction (-), " +
		"multiplication (*), and division (/) are also fundamental."

	DefaultExampleCode = `name = "World"
print(f"Hello, {name}!")
x = 10
y = 5
sum_result = x + y
print(f"The sum of {x} and {y} is {sum_result}")

# Try to make a variable for your favorite food and print it.
# Then, try to calculate 100 divided by 4 and print the result.
`

	// hand-holding 模式下模型没给出代码片段时的兜底
	DefaultHandHoldingSnippet = "# TODO: Write your code here, following the question."
)

const DefaultUserID = "anonymous"
